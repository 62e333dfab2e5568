package jenkins

// Change set classes known to this package.
const (
	EmptyChangeLogSetClass = "hudson.scm.EmptyChangeLogSet"
	GitChangeSetListClass  = "hudson.plugins.git.GitChangeSetList"
	GitChangeSetClass      = "hudson.plugins.git.GitChangeSet"
)

// ChangeSetList is the list of changes of a build for one SCM.
type ChangeSetList struct {
	Class string     `json:"_class"`
	Kind  string     `json:"kind"`
	Items ChangeSets `json:"items"`
}

// IsEmpty reports whether the build had no changes.
func (l ChangeSetList) IsEmpty() bool {
	return l.Class == EmptyChangeLogSetClass || len(l.Items) == 0
}

// ChangeSet is a single change, usually a commit.
type ChangeSet interface {
	ClassName() string
}

var changeSetRegistry = newRegistry[ChangeSet]("change set", fallback[ChangeSet, CommonChangeSet])

func init() {
	RegisterChangeSetClass(GitChangeSetClass, func() ChangeSet { return &GitChangeSet{} })
}

// RegisterChangeSetClass makes changes of class decode into the value
// returned by factory, which must be a pointer.
func RegisterChangeSetClass(class string, factory func() ChangeSet) {
	changeSetRegistry.register(class, factory)
}

// ChangeSets decodes a heterogeneous list of changes.
type ChangeSets []ChangeSet

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChangeSets) UnmarshalJSON(data []byte) error {
	items, err := changeSetRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*c = items
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c ChangeSets) MarshalJSON() ([]byte, error) {
	return encodeList(c)
}

// CommonChangeSet is a change of a class without a registered type.
type CommonChangeSet struct {
	raw
}

// EditType is the kind of modification of a file.
type EditType string

// Edit types used by the SCM plugins.
const (
	EditTypeAdd    EditType = "add"
	EditTypeEdit   EditType = "edit"
	EditTypeDelete EditType = "delete"
)

// ChangedPath is a file touched by a change.
type ChangedPath struct {
	EditType EditType `json:"editType"`
	File     string   `json:"file"`
}

// GitChangeSet is a git commit.
type GitChangeSet struct {
	AffectedPaths []string      `json:"affectedPaths"`
	CommitID      string        `json:"commitId"`
	Timestamp     int64         `json:"timestamp"`
	Author        ShortUser     `json:"author"`
	AuthorEmail   string        `json:"authorEmail"`
	Comment       string        `json:"comment"`
	Date          string        `json:"date"`
	ID            string        `json:"id"`
	Msg           string        `json:"msg"`
	Paths         []ChangedPath `json:"paths"`
}

// ClassName implements ChangeSet.
func (GitChangeSet) ClassName() string { return GitChangeSetClass }
