package resource

// ClassName is the store class holding portal resources.
const ClassName = "Resource"

// Store property names.
const (
	PropTitle                = "title"
	PropSummary              = "summary"
	PropKeywords             = "keywords"
	PropSourceType           = "sourceType"
	PropTheme                = "theme"
	PropSource               = "source"
	PropPlatform             = "platform"
	PropAuthor               = "author"
	PropLocation             = "location"
	PropPublicationDate      = "publicationDate"
	PropLinkToOriginalSource = "linkToOriginalSource"
	PropImageURL             = "imageUrl"
	PropStatus               = "status"
)

// TextProperties are matched by free-text queries.
var TextProperties = []string{PropTitle, PropSummary, PropKeywords}

// Properties is the projection requested from the store.
var Properties = []string{
	PropTitle, PropSummary, PropKeywords, PropSourceType, PropTheme, PropSource,
	PropPlatform, PropAuthor, PropLocation, PropPublicationDate,
	PropLinkToOriginalSource, PropImageURL, PropStatus,
}
