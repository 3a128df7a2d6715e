package preprocess

// Kind is the value type of a column.
type Kind int

const (
	Double Kind = iota
	Integer
)

func (k Kind) String() string {
	if k == Integer {
		return "Integer"
	}
	return "Double"
}

// Column names one field of a record.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of columns of a record.
type Schema []Column

// Column names used by the pipeline.
const (
	WineTypeColumn = "wine type"
	QualityColumn  = "quality"
)

// FeatureColumns are the physicochemical measurements, in file order.
var FeatureColumns = []string{
	"fixed acidity",
	"volatile acidity",
	"citric acid",
	"residual sugar",
	"chlorides",
	"free sulfur dioxide",
	"total sulfur dioxide",
	"density",
	"pH",
	"sulphates",
	"alcohol",
}

// InputSchema describes the raw UCI files: the features followed by the
// quality score between 0 and 10.
var InputSchema = func() Schema {
	s := make(Schema, 0, len(FeatureColumns)+1)
	for _, name := range FeatureColumns {
		s = append(s, Column{Name: name, Kind: Double})
	}
	return append(s, Column{Name: QualityColumn, Kind: Integer})
}()

// OutputSchema describes the preprocessed files: wine type first, quality last.
var OutputSchema, _ = InputSchema.With(Column{Name: WineTypeColumn, Kind: Integer}).MoveToFront(WineTypeColumn)

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// With returns a copy of s with c appended.
func (s Schema) With(c Column) Schema {
	out := make(Schema, len(s), len(s)+1)
	copy(out, s)
	return append(out, c)
}

// MoveToFront returns a copy of s with the named column first, together with
// the permutation mapping each new position to its old one. An unknown name
// leaves the order unchanged.
func (s Schema) MoveToFront(name string) (Schema, []int) {
	perm := make([]int, 0, len(s))
	if i := s.Index(name); i >= 0 {
		perm = append(perm, i)
	}
	for i, c := range s {
		if c.Name != name {
			perm = append(perm, i)
		}
	}
	out := make(Schema, len(s))
	for to, from := range perm {
		out[to] = s[from]
	}
	return out, perm
}

// permute reorders every record in place according to perm.
func permute(records [][]float64, perm []int) {
	buf := make([]float64, len(perm))
	for _, rec := range records {
		for to, from := range perm {
			buf[to] = rec[from]
		}
		copy(rec, buf)
	}
}
