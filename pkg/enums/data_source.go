package enums

// DataSource records which fallback tier served reference data.
type DataSource string

const (
	DataSourceNone    DataSource = ""
	DataSourceRemote  DataSource = "remote"
	DataSourceCache   DataSource = "cache"
	DataSourceBundled DataSource = "bundled"
)

// String implements fmt.Stringer.
func (d DataSource) String() string {
	if d == DataSourceNone {
		return "none"
	}
	return string(d)
}
