package jenkins

// Action classes known to this package.
const (
	ParametersActionClass              = "hudson.model.ParametersAction"
	CauseActionClass                   = "hudson.model.CauseAction"
	GitBuildDataClass                  = "hudson.plugins.git.util.BuildData"
	GitTagActionClass                  = "hudson.plugins.git.GitTagAction"
	TestResultActionClass              = "hudson.tasks.junit.TestResultAction"
	TimeInQueueActionClass             = "jenkins.metrics.impl.TimeInQueueAction"
	MavenArtifactRecordClass           = "hudson.maven.reporters.MavenArtifactRecord"
	MavenAggregatedArtifactRecordClass = "hudson.maven.reporters.MavenAggregatedArtifactRecord"
)

// Action is an entry in the `actions` list of builds, jobs and queue items.
type Action interface {
	ClassName() string
}

var actionRegistry = newRegistry[Action]("action", fallback[Action, CommonAction])

func init() {
	RegisterActionClass(ParametersActionClass, func() Action { return &ParametersAction{} })
	RegisterActionClass(CauseActionClass, func() Action { return &CauseAction{} })
	RegisterActionClass(GitBuildDataClass, func() Action { return &GitBuildData{} })
	RegisterActionClass(GitTagActionClass, func() Action { return &GitTagAction{} })
	RegisterActionClass(TestResultActionClass, func() Action { return &TestResultAction{} })
	RegisterActionClass(TimeInQueueActionClass, func() Action { return &TimeInQueueAction{} })
	RegisterActionClass(MavenArtifactRecordClass, func() Action { return &MavenArtifactRecord{} })
	RegisterActionClass(MavenAggregatedArtifactRecordClass, func() Action { return &MavenAggregatedArtifactRecord{} })
}

// RegisterActionClass makes actions of class decode into the value returned
// by factory, which must be a pointer.
func RegisterActionClass(class string, factory func() Action) {
	actionRegistry.register(class, factory)
}

// Actions decodes a heterogeneous list of actions.
type Actions []Action

// UnmarshalJSON implements json.Unmarshaler.
func (a *Actions) UnmarshalJSON(data []byte) error {
	items, err := actionRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*a = items
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Actions) MarshalJSON() ([]byte, error) {
	return encodeList(a)
}

// Parameters collects the values of all parameters actions by name.
func (a Actions) Parameters() map[string]interface{} {
	result := make(map[string]interface{})

	for _, action := range a {
		if params, ok := action.(*ParametersAction); ok {
			for _, param := range params.Parameters {
				result[param.ParameterName()] = param.ParameterValue()
			}
		}
	}

	return result
}

// Causes collects the causes of all cause actions.
func (a Actions) Causes() Causes {
	result := make(Causes, 0)

	for _, action := range a {
		if causes, ok := action.(*CauseAction); ok {
			result = append(result, causes.Causes...)
		}
	}

	return result
}

// FindAction returns the first action of type T.
func FindAction[T Action](actions Actions) (T, bool) {
	for _, action := range actions {
		if result, ok := action.(T); ok {
			return result, true
		}
	}

	var zero T
	return zero, false
}

// CommonAction is an action of a class without a registered type. Jenkins
// renders actions hidden from the API as `{}`, those end up here with an
// empty class.
type CommonAction struct {
	raw
}

// ParametersAction holds the parameters of a build.
type ParametersAction struct {
	Parameters Parameters `json:"parameters"`
}

// ClassName implements Action.
func (ParametersAction) ClassName() string { return ParametersActionClass }

// CauseAction lists why a build was started.
type CauseAction struct {
	Causes Causes `json:"causes"`
}

// ClassName implements Action.
func (CauseAction) ClassName() string { return CauseActionClass }

// GitBranch is a branch pointing at a revision.
type GitBranch struct {
	SHA1 string `json:"SHA1"`
	Name string `json:"name"`
}

// GitRevision is a revision seen by the git plugin.
type GitRevision struct {
	SHA1   string      `json:"SHA1"`
	Branch []GitBranch `json:"branch"`
}

// GitBranchBuild is the last build of a branch.
type GitBranchBuild struct {
	BuildNumber int         `json:"buildNumber"`
	BuildResult BuildStatus `json:"buildResult"`
	Marked      GitRevision `json:"marked"`
	Revision    GitRevision `json:"revision"`
}

// GitBuildData describes the git checkout of a build.
type GitBuildData struct {
	SCMName            string                    `json:"scmName"`
	LastBuiltRevision  GitRevision               `json:"lastBuiltRevision"`
	RemoteURLs         []string                  `json:"remoteUrls"`
	BuildsByBranchName map[string]GitBranchBuild `json:"buildsByBranchName"`
}

// ClassName implements Action.
func (GitBuildData) ClassName() string { return GitBuildDataClass }

// GitTagAction is attached to builds of git jobs.
type GitTagAction struct{}

// ClassName implements Action.
func (GitTagAction) ClassName() string { return GitTagActionClass }

// TestResultAction summarizes junit results.
type TestResultAction struct {
	FailCount  int    `json:"failCount"`
	SkipCount  int    `json:"skipCount"`
	TotalCount int    `json:"totalCount"`
	URLName    string `json:"urlName"`
}

// ClassName implements Action.
func (TestResultAction) ClassName() string { return TestResultActionClass }

// TimeInQueueAction is recorded by the metrics plugin.
type TimeInQueueAction struct {
	BlockedDurationMillis   int64   `json:"blockedDurationMillis"`
	BlockedTimeMillis       int64   `json:"blockedTimeMillis"`
	BuildableDurationMillis int64   `json:"buildableDurationMillis"`
	BuildableTimeMillis     int64   `json:"buildableTimeMillis"`
	BuildingDurationMillis  int64   `json:"buildingDurationMillis"`
	ExecutingTimeMillis     int64   `json:"executingTimeMillis"`
	ExecutorUtilization     float64 `json:"executorUtilization"`
	SubTaskCount            int     `json:"subTaskCount"`
	WaitingDurationMillis   int64   `json:"waitingDurationMillis"`
	WaitingTimeMillis       int64   `json:"waitingTimeMillis"`
}

// ClassName implements Action.
func (TimeInQueueAction) ClassName() string { return TimeInQueueActionClass }

// MavenArtifact is a file produced by a maven module.
type MavenArtifact struct {
	ArtifactID    string `json:"artifactId"`
	CanonicalName string `json:"canonicalName"`
	Classifier    string `json:"classifier"`
	FileName      string `json:"fileName"`
	GroupID       string `json:"groupId"`
	MD5Sum        string `json:"md5sum"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Version       string `json:"version"`
}

// MavenArtifactRecord lists the artifacts of a maven module build.
type MavenArtifactRecord struct {
	AttachedArtifacts []MavenArtifact `json:"attachedArtifacts"`
	MainArtifact      MavenArtifact   `json:"mainArtifact"`
	POMArtifact       MavenArtifact   `json:"pomArtifact"`
	Parent            *ShortBuild     `json:"parent"`
}

// ClassName implements Action.
func (MavenArtifactRecord) ClassName() string { return MavenArtifactRecordClass }

// MavenAggregatedArtifactRecord groups the records of all modules.
type MavenAggregatedArtifactRecord struct {
	ModuleRecords []MavenArtifactRecord `json:"moduleRecords"`
}

// ClassName implements Action.
func (MavenAggregatedArtifactRecord) ClassName() string {
	return MavenAggregatedArtifactRecordClass
}

// ShortMavenArtifactRecord is the reference to a record embedded in builds.
type ShortMavenArtifactRecord struct {
	Class string `json:"_class"`
}

var (
	_ Action = (*CommonAction)(nil)
	_ Record = (*CommonAction)(nil)
)
