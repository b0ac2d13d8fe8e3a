package cms

// ContentType discriminates the kind of a content item.
type ContentType int

const (
	ContentHTML      ContentType = 0
	ContentSmartForm ContentType = 1
	ContentAsset     ContentType = 2
)

func (t ContentType) String() string {
	switch t {
	case ContentHTML:
		return "html"
	case ContentSmartForm:
		return "smartform"
	case ContentAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// MetadataField is a named text attribute attached to an item.
type MetadataField struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Asset is a binary payload stored with an asset item.
type Asset struct {
	FileName string `json:"fileName"`
	Data     []byte `json:"data"`
}

// Item is the store's representation of a content item.
type Item struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	FolderID    int64           `json:"folderId"`
	FolderPath  string          `json:"folderPath"`
	HTML        string          `json:"html,omitempty"`
	Asset       *Asset          `json:"asset,omitempty"`
	ContentType ContentType     `json:"contentType"`
	SmartFormID int64           `json:"smartFormId,omitempty"`
	Metadata    []MetadataField `json:"metadata,omitempty"`
}

// Clone returns a deep copy so mutations never reach shared search results.
func (i Item) Clone() Item {
	clone := i
	if i.Asset != nil {
		asset := *i.Asset
		asset.Data = append([]byte(nil), i.Asset.Data...)
		clone.Asset = &asset
	}
	if i.Metadata != nil {
		clone.Metadata = append([]MetadataField(nil), i.Metadata...)
	}
	return clone
}

// MetadataByName returns the metadata field with an exactly matching name.
func (i *Item) MetadataByName(name string) *MetadataField {
	for idx := range i.Metadata {
		if i.Metadata[idx].Name == name {
			return &i.Metadata[idx]
		}
	}
	return nil
}

// Folder is a resolved destination container.
type Folder struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// Taxonomy is a resolved classification node.
type Taxonomy struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// TaxonomyAssociation links a content item to a taxonomy node.
type TaxonomyAssociation struct {
	ID         int64 `json:"id,omitempty"`
	ContentID  int64 `json:"contentId"`
	TaxonomyID int64 `json:"taxonomyId"`
}
