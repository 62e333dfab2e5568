package jenkins

import (
	"encoding/json"
	"strings"
)

// Job classes known to this package.
const (
	FreeStyleProjectClass           = "hudson.model.FreeStyleProject"
	WorkflowJobClass                = "org.jenkinsci.plugins.workflow.job.WorkflowJob"
	MatrixProjectClass              = "hudson.matrix.MatrixProject"
	MatrixConfigurationClass        = "hudson.matrix.MatrixConfiguration"
	MavenModuleSetClass             = "hudson.maven.MavenModuleSet"
	MavenModuleClass                = "hudson.maven.MavenModule"
	ExternalJobClass                = "hudson.model.ExternalJob"
	FolderClass                     = "com.cloudbees.hudson.plugins.folder.Folder"
	OrganizationFolderClass         = "jenkins.branch.OrganizationFolder"
	WorkflowMultiBranchProjectClass = "org.jenkinsci.plugins.workflow.multibranch.WorkflowMultiBranchProject"
)

// BallColor is the status icon of a job.
type BallColor string

// Colors reported by Jenkins. The animated variants mark running builds.
const (
	ColorBlue          BallColor = "blue"
	ColorBlueAnime     BallColor = "blue_anime"
	ColorYellow        BallColor = "yellow"
	ColorYellowAnime   BallColor = "yellow_anime"
	ColorRed           BallColor = "red"
	ColorRedAnime      BallColor = "red_anime"
	ColorGrey          BallColor = "grey"
	ColorGreyAnime     BallColor = "grey_anime"
	ColorDisabled      BallColor = "disabled"
	ColorDisabledAnime BallColor = "disabled_anime"
	ColorAborted       BallColor = "aborted"
	ColorAbortedAnime  BallColor = "aborted_anime"
	ColorNotBuilt      BallColor = "notbuilt"
	ColorNotBuiltAnime BallColor = "notbuilt_anime"
)

const animeSuffix = "_anime"

// IsAnimated reports whether a build of the job is running.
func (c BallColor) IsAnimated() bool {
	return strings.HasSuffix(string(c), animeSuffix)
}

// Static returns the color without the running marker.
func (c BallColor) Static() BallColor {
	return BallColor(strings.TrimSuffix(string(c), animeSuffix))
}

// HealthReport is the weather report of a job.
type HealthReport struct {
	Description   string `json:"description"`
	IconClassName string `json:"iconClassName"`
	IconURL       string `json:"iconUrl"`
	Score         int    `json:"score"`
}

// ShortJob is the reference to a job found in views, folders and the home
// page.
type ShortJob struct {
	Class string    `json:"_class,omitempty"`
	Name  string    `json:"name"`
	URL   string    `json:"url"`
	Color BallColor `json:"color,omitempty"`
}

// Job is implemented by every job variant.
type Job interface {
	Base() *BaseJob
}

// Container is implemented by jobs holding other jobs.
type Container interface {
	Job
	Children() []ShortJob
}

// BaseJob holds the fields every job shares.
type BaseJob struct {
	Class                 string          `json:"_class"`
	Name                  string          `json:"name"`
	DisplayName           string          `json:"displayName"`
	FullDisplayName       string          `json:"fullDisplayName"`
	FullName              string          `json:"fullName"`
	Description           string          `json:"description"`
	URL                   string          `json:"url"`
	Buildable             bool            `json:"buildable"`
	Color                 BallColor       `json:"color"`
	InQueue               bool            `json:"inQueue"`
	KeepDependencies      bool            `json:"keepDependencies"`
	NextBuildNumber       int             `json:"nextBuildNumber"`
	Actions               Actions         `json:"actions"`
	HealthReport          []HealthReport  `json:"healthReport"`
	Property              Properties      `json:"property"`
	QueueItem             *ShortQueueItem `json:"queueItem"`
	Builds                []ShortBuild    `json:"builds"`
	FirstBuild            *ShortBuild     `json:"firstBuild"`
	LastBuild             *ShortBuild     `json:"lastBuild"`
	LastCompletedBuild    *ShortBuild     `json:"lastCompletedBuild"`
	LastFailedBuild       *ShortBuild     `json:"lastFailedBuild"`
	LastStableBuild       *ShortBuild     `json:"lastStableBuild"`
	LastSuccessfulBuild   *ShortBuild     `json:"lastSuccessfulBuild"`
	LastUnstableBuild     *ShortBuild     `json:"lastUnstableBuild"`
	LastUnsuccessfulBuild *ShortBuild     `json:"lastUnsuccessfulBuild"`
}

// Base implements Job.
func (j *BaseJob) Base() *BaseJob {
	return j
}

// Short returns the reference to this job.
func (j *BaseJob) Short() ShortJob {
	return ShortJob{Class: j.Class, Name: j.Name, URL: j.URL, Color: j.Color}
}

// Path returns the full name of the job, falling back to its name when the
// server did not report one.
func (j *BaseJob) Path() string {
	if j.FullName != "" {
		return j.FullName
	}

	return j.Name
}

// Parameters returns the parameters the job accepts.
func (j *BaseJob) Parameters() []ParameterDefinition {
	for _, property := range j.Property {
		if params, ok := property.(*ParametersDefinitionProperty); ok {
			return params.ParameterDefinitions
		}
	}

	return nil
}

// SCM is the source control configured for a project.
type SCM struct {
	Class string `json:"_class"`
}

// Project holds the fields of buildable jobs with a classic configuration.
type Project struct {
	Disabled           bool       `json:"disabled"`
	ConcurrentBuild    bool       `json:"concurrentBuild"`
	LabelExpression    string     `json:"labelExpression"`
	SCM                SCM        `json:"scm"`
	UpstreamProjects   []ShortJob `json:"upstreamProjects"`
	DownstreamProjects []ShortJob `json:"downstreamProjects"`
}

// CommonJob is a job of a class without a registered type.
type CommonJob struct {
	BaseJob
	raw
}

// FreeStyleProject is a freestyle job.
type FreeStyleProject struct {
	BaseJob
	Project
}

// WorkflowJob is a pipeline job.
type WorkflowJob struct {
	BaseJob
	Disabled        bool `json:"disabled"`
	ConcurrentBuild bool `json:"concurrentBuild"`
	ResumeBlocked   bool `json:"resumeBlocked"`
}

// MatrixProject is a multi configuration job.
type MatrixProject struct {
	BaseJob
	Project
	ActiveConfigurations []ShortJob `json:"activeConfigurations"`
}

// MatrixConfiguration is a single configuration of a matrix project.
type MatrixConfiguration struct {
	BaseJob
	Project
}

// MavenModuleSet is a maven job.
type MavenModuleSet struct {
	BaseJob
	Project
	Modules []ShortJob `json:"modules"`
}

// MavenModule is a single module of a maven job.
type MavenModule struct {
	BaseJob
	Project
}

// ExternalJob records the executions of a process outside of Jenkins.
type ExternalJob struct {
	BaseJob
}

// Folder groups jobs.
type Folder struct {
	BaseJob
	Jobs        []ShortJob  `json:"jobs"`
	PrimaryView *ShortView  `json:"primaryView"`
	Views       []ShortView `json:"views"`
}

// Children implements Container.
func (f *Folder) Children() []ShortJob {
	return f.Jobs
}

// WorkflowMultiBranchProject is a folder with a pipeline for each branch.
type WorkflowMultiBranchProject struct {
	Folder
}

var jobRegistry = newRegistry[Job]("job", fallback[Job, CommonJob])

func init() {
	RegisterJobClass(FreeStyleProjectClass, func() Job { return &FreeStyleProject{} })
	RegisterJobClass(WorkflowJobClass, func() Job { return &WorkflowJob{} })
	RegisterJobClass(MatrixProjectClass, func() Job { return &MatrixProject{} })
	RegisterJobClass(MatrixConfigurationClass, func() Job { return &MatrixConfiguration{} })
	RegisterJobClass(MavenModuleSetClass, func() Job { return &MavenModuleSet{} })
	RegisterJobClass(MavenModuleClass, func() Job { return &MavenModule{} })
	RegisterJobClass(ExternalJobClass, func() Job { return &ExternalJob{} })
	RegisterJobClass(FolderClass, func() Job { return &Folder{} })
	RegisterJobClass(OrganizationFolderClass, func() Job { return &Folder{} })
	RegisterJobClass(WorkflowMultiBranchProjectClass, func() Job { return &WorkflowMultiBranchProject{} })
}

// RegisterJobClass makes jobs of class decode into the value returned by
// factory, which must be a pointer.
func RegisterJobClass(class string, factory func() Job) {
	jobRegistry.register(class, factory)
}

// DecodeJob decodes a job into the variant registered for its class.
func DecodeJob(data []byte) (Job, error) {
	return jobRegistry.decode(data)
}

// IsFolder reports whether a job holds other jobs. Unknown classes are
// treated as folders when their class name says so.
func IsFolder(job Job) bool {
	if _, ok := job.(Container); ok {
		return true
	}

	return strings.Contains(job.Base().Class, "Folder")
}

// ChildrenOf returns the jobs held by a folder, including folders of classes
// without a registered type.
func ChildrenOf(job Job) []ShortJob {
	if c, ok := job.(Container); ok {
		return c.Children()
	}

	if r, ok := job.(Record); ok {
		var result struct {
			Jobs []ShortJob `json:"jobs"`
		}

		if err := json.Unmarshal(r.RawJSON(), &result); err == nil {
			return result.Jobs
		}
	}

	return nil
}

// IsDisabled reports whether a job refuses new builds.
func IsDisabled(job Job) bool {
	switch j := job.(type) {
	case *WorkflowJob:
		return j.Disabled
	case interface{ project() *Project }:
		return j.project().Disabled
	}

	return job.Base().Color.Static() == ColorDisabled
}

func (p *Project) project() *Project {
	return p
}

var (
	_ Job       = (*CommonJob)(nil)
	_ Record    = (*CommonJob)(nil)
	_ Container = (*Folder)(nil)
	_ Container = (*WorkflowMultiBranchProject)(nil)
)
