package jenkins

// Cause classes known to this package.
const (
	UserIDCauseClass         = "hudson.model.Cause$UserIdCause"
	UserCauseClass           = "hudson.model.Cause$UserCause"
	UpstreamCauseClass       = "hudson.model.Cause$UpstreamCause"
	RemoteCauseClass         = "hudson.model.Cause$RemoteCause"
	SCMTriggerCauseClass     = "hudson.triggers.SCMTrigger$SCMTriggerCause"
	TimerTriggerCauseClass   = "hudson.triggers.TimerTrigger$TimerTriggerCause"
	BranchIndexingCauseClass = "jenkins.branch.BranchIndexingCause"
)

// Cause explains why a build was started.
type Cause interface {
	ClassName() string
	Description() string
}

var causeRegistry = newRegistry[Cause]("cause", fallback[Cause, CommonCause])

func init() {
	RegisterCauseClass(UserIDCauseClass, func() Cause { return &UserIDCause{} })
	RegisterCauseClass(UserCauseClass, func() Cause { return &UserCause{} })
	RegisterCauseClass(UpstreamCauseClass, func() Cause { return &UpstreamCause{} })
	RegisterCauseClass(RemoteCauseClass, func() Cause { return &RemoteCause{} })
	RegisterCauseClass(SCMTriggerCauseClass, func() Cause { return &SCMTriggerCause{} })
	RegisterCauseClass(TimerTriggerCauseClass, func() Cause { return &TimerTriggerCause{} })
	RegisterCauseClass(BranchIndexingCauseClass, func() Cause { return &BranchIndexingCause{} })
}

// RegisterCauseClass makes causes of class decode into the value returned by
// factory, which must be a pointer.
func RegisterCauseClass(class string, factory func() Cause) {
	causeRegistry.register(class, factory)
}

// Causes decodes a heterogeneous list of causes.
type Causes []Cause

// UnmarshalJSON implements json.Unmarshaler.
func (c *Causes) UnmarshalJSON(data []byte) error {
	items, err := causeRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*c = items
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Causes) MarshalJSON() ([]byte, error) {
	return encodeList(c)
}

// Descriptions returns the short description of every cause.
func (c Causes) Descriptions() []string {
	result := make([]string, 0, len(c))

	for _, cause := range c {
		result = append(result, cause.Description())
	}

	return result
}

// CauseDescription is shared by all causes.
type CauseDescription struct {
	ShortDescription string `json:"shortDescription"`
}

// Description implements Cause.
func (s CauseDescription) Description() string {
	return s.ShortDescription
}

// CommonCause is a cause of a class without a registered type.
type CommonCause struct {
	raw
	CauseDescription
}

// UserIDCause is a build started by a logged in user.
type UserIDCause struct {
	CauseDescription
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// ClassName implements Cause.
func (UserIDCause) ClassName() string { return UserIDCauseClass }

// UserCause is the deprecated form of UserIDCause.
type UserCause struct {
	CauseDescription
	UserName string `json:"userName"`
}

// ClassName implements Cause.
func (UserCause) ClassName() string { return UserCauseClass }

// UpstreamCause is a build started by another build.
type UpstreamCause struct {
	CauseDescription
	UpstreamBuild   int    `json:"upstreamBuild"`
	UpstreamProject string `json:"upstreamProject"`
	UpstreamURL     string `json:"upstreamUrl"`
}

// ClassName implements Cause.
func (UpstreamCause) ClassName() string { return UpstreamCauseClass }

// Upstream returns the path of the build that triggered this one.
func (u UpstreamCause) Upstream() BuildPath {
	return BuildPath{Job: u.UpstreamProject, Number: Number(u.UpstreamBuild)}
}

// RemoteCause is a build started through a remote trigger token.
type RemoteCause struct {
	CauseDescription
	Addr string `json:"addr"`
	Note string `json:"note"`
}

// ClassName implements Cause.
func (RemoteCause) ClassName() string { return RemoteCauseClass }

// SCMTriggerCause is a build started by SCM polling.
type SCMTriggerCause struct {
	CauseDescription
}

// ClassName implements Cause.
func (SCMTriggerCause) ClassName() string { return SCMTriggerCauseClass }

// TimerTriggerCause is a build started by a cron trigger.
type TimerTriggerCause struct {
	CauseDescription
}

// ClassName implements Cause.
func (TimerTriggerCause) ClassName() string { return TimerTriggerCauseClass }

// BranchIndexingCause is a build started by multibranch indexing.
type BranchIndexingCause struct {
	CauseDescription
}

// ClassName implements Cause.
func (BranchIndexingCause) ClassName() string { return BranchIndexingCauseClass }
