package certify

// AssetKind tags how an asset reference should be resolved.
type AssetKind string

const (
	// AssetKindNone means the asset has not been generated yet.
	AssetKindNone AssetKind = ""
	// AssetKindFile means Ref is a path to a file on disk.
	AssetKindFile AssetKind = "file"
	// AssetKindDynamic means Ref is an endpoint path that renders the asset
	// on demand. Used when the external generator was unavailable.
	AssetKindDynamic AssetKind = "dynamic"
)

// AssetRef is a tagged reference to a derived certificate asset. Callers
// branch on Kind instead of inspecting string shapes.
type AssetRef struct {
	Kind AssetKind `gorm:"type:varchar(10)" json:"kind"`
	Ref  string    `gorm:"type:text" json:"ref"`
}

func FileBacked(path string) AssetRef {
	return AssetRef{Kind: AssetKindFile, Ref: path}
}

func DynamicReference(endpoint string) AssetRef {
	return AssetRef{Kind: AssetKindDynamic, Ref: endpoint}
}

func (a AssetRef) IsZero() bool {
	return a.Kind == AssetKindNone || a.Ref == ""
}

func (a AssetRef) IsFile() bool {
	return a.Kind == AssetKindFile && a.Ref != ""
}

func (a AssetRef) IsDynamic() bool {
	return a.Kind == AssetKindDynamic && a.Ref != ""
}
