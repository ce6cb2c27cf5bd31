package weaviate

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reformhub/internal/db"
	"github.com/kailas-cloud/reformhub/internal/domain"
)

// Object fetches one object by ID. Its properties are nested under "properties".
func (c *Client) Object(ctx context.Context, class, id string) (Record, error) {
	objs, err := c.client.Data().ObjectsGetter().
		WithClassName(class).
		WithID(id).
		Do(ctx)
	if err != nil {
		return Record{}, wrap(OpObject, err)
	}
	if len(objs) == 0 || objs[0] == nil {
		return Record{}, &db.Error{Op: OpObject, Err: fmt.Errorf("%w: object %s", domain.ErrNotFound, id)}
	}
	obj := objs[0]
	return Record{
		ID: string(obj.ID),
		Fields: map[string]any{
			"properties": obj.Properties,
		},
	}, nil
}

// Create inserts an object under a caller-chosen ID. An existing ID is domain.ErrAlreadyExists.
func (c *Client) Create(ctx context.Context, class, id string, props map[string]any) error {
	exists, err := c.client.Data().Checker().
		WithClassName(class).
		WithID(id).
		Do(ctx)
	if err != nil {
		return wrap(OpCreate, err)
	}
	if exists {
		return &db.Error{Op: OpCreate, Err: fmt.Errorf("%w: object %s", domain.ErrAlreadyExists, id)}
	}

	_, err = c.client.Data().Creator().
		WithClassName(class).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return wrap(OpCreate, err)
	}
	return nil
}

// Merge patches the given properties of an existing object.
func (c *Client) Merge(ctx context.Context, class, id string, props map[string]any) error {
	err := c.client.Data().Updater().
		WithMerge().
		WithClassName(class).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return wrap(OpMerge, err)
	}
	return nil
}
