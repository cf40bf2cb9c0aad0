package cache

// Keyer derives cache keys for each kind of cached value.
type Keyer interface {
	// SchemaKey is the key of a schema introspected from source, usually a
	// database DSN.
	SchemaKey(source string) string
	// LayoutKey is the key of a base layout for the schema with the given
	// content hash.
	LayoutKey(schemaHash string, opts LayoutKeyOpts) string
	// ArtifactKey is the key of a rendered output for the layout with the
	// given content hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs besides the schema itself.
type LayoutKeyOpts struct {
	Direction    string  `json:"direction"`
	NodeSpacing  float64 `json:"node_spacing,omitempty"`
	LayerSpacing float64 `json:"layer_spacing,omitempty"`
	Solver       string  `json:"solver,omitempty"`
}

// ArtifactKeyOpts are the render inputs besides the layout itself.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Theme  string  `json:"theme,omitempty"`
	Title  string  `json:"title,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	// Displacements is the hash of the drag state composed onto the layout.
	Displacements string `json:"displacements,omitempty"`
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SchemaKey hashes the source so credentials in a DSN never appear in keys.
func (DefaultKeyer) SchemaKey(source string) string {
	return hashKey("schema", source)
}

// LayoutKey hashes the schema hash together with the layout options.
func (DefaultKeyer) LayoutKey(schemaHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", schemaHash, opts)
}

// ArtifactKey hashes the layout hash together with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
