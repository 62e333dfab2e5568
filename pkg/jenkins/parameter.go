package jenkins

// Parameter value classes known to this package.
const (
	StringParameterValueClass   = "hudson.model.StringParameterValue"
	BooleanParameterValueClass  = "hudson.model.BooleanParameterValue"
	TextParameterValueClass     = "hudson.model.TextParameterValue"
	PasswordParameterValueClass = "hudson.model.PasswordParameterValue"
	RunParameterValueClass      = "hudson.model.RunParameterValue"
	FileParameterValueClass     = "hudson.model.FileParameterValue"
)

// Parameter is a parameter value a build was started with.
type Parameter interface {
	ClassName() string
	ParameterName() string
	ParameterValue() interface{}
}

var parameterRegistry = newRegistry[Parameter]("parameter", fallback[Parameter, CommonParameter])

func init() {
	RegisterParameterClass(StringParameterValueClass, func() Parameter { return &StringParameterValue{} })
	RegisterParameterClass(BooleanParameterValueClass, func() Parameter { return &BooleanParameterValue{} })
	RegisterParameterClass(TextParameterValueClass, func() Parameter { return &TextParameterValue{} })
	RegisterParameterClass(PasswordParameterValueClass, func() Parameter { return &PasswordParameterValue{} })
	RegisterParameterClass(RunParameterValueClass, func() Parameter { return &RunParameterValue{} })
	RegisterParameterClass(FileParameterValueClass, func() Parameter { return &FileParameterValue{} })
}

// RegisterParameterClass makes parameters of class decode into the value
// returned by factory, which must be a pointer.
func RegisterParameterClass(class string, factory func() Parameter) {
	parameterRegistry.register(class, factory)
}

// Parameters decodes a heterogeneous list of parameter values.
type Parameters []Parameter

// UnmarshalJSON implements json.Unmarshaler.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	items, err := parameterRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*p = items
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return encodeList(p)
}

// Get returns the value of the parameter called name.
func (p Parameters) Get(name string) (interface{}, bool) {
	for _, param := range p {
		if param.ParameterName() == name {
			return param.ParameterValue(), true
		}
	}

	return nil, false
}

// NamedParameter is shared by all parameter values.
type NamedParameter struct {
	Name string `json:"name"`
}

// ParameterName implements Parameter.
func (p NamedParameter) ParameterName() string {
	return p.Name
}

// CommonParameter is a parameter of a class without a registered type.
type CommonParameter struct {
	raw
	NamedParameter
	Value interface{} `json:"value"`
}

// ParameterValue implements Parameter.
func (p CommonParameter) ParameterValue() interface{} { return p.Value }

// StringParameterValue is a string parameter.
type StringParameterValue struct {
	NamedParameter
	Value string `json:"value"`
}

// ClassName implements Parameter.
func (StringParameterValue) ClassName() string { return StringParameterValueClass }

// ParameterValue implements Parameter.
func (p StringParameterValue) ParameterValue() interface{} { return p.Value }

// BooleanParameterValue is a boolean parameter.
type BooleanParameterValue struct {
	NamedParameter
	Value bool `json:"value"`
}

// ClassName implements Parameter.
func (BooleanParameterValue) ClassName() string { return BooleanParameterValueClass }

// ParameterValue implements Parameter.
func (p BooleanParameterValue) ParameterValue() interface{} { return p.Value }

// TextParameterValue is a multi line string parameter.
type TextParameterValue struct {
	NamedParameter
	Value string `json:"value"`
}

// ClassName implements Parameter.
func (TextParameterValue) ClassName() string { return TextParameterValueClass }

// ParameterValue implements Parameter.
func (p TextParameterValue) ParameterValue() interface{} { return p.Value }

// PasswordParameterValue is a password parameter, Jenkins never exposes the
// value.
type PasswordParameterValue struct {
	NamedParameter
}

// ClassName implements Parameter.
func (PasswordParameterValue) ClassName() string { return PasswordParameterValueClass }

// ParameterValue implements Parameter.
func (PasswordParameterValue) ParameterValue() interface{} { return nil }

// RunParameterValue references a build of another job.
type RunParameterValue struct {
	NamedParameter
	JobName string `json:"jobName"`
	Number  string `json:"number"`
}

// ClassName implements Parameter.
func (RunParameterValue) ClassName() string { return RunParameterValueClass }

// ParameterValue implements Parameter.
func (p RunParameterValue) ParameterValue() interface{} {
	return p.JobName + "#" + p.Number
}

// FileParameterValue is an uploaded file.
type FileParameterValue struct {
	NamedParameter
}

// ClassName implements Parameter.
func (FileParameterValue) ClassName() string { return FileParameterValueClass }

// ParameterValue implements Parameter.
func (FileParameterValue) ParameterValue() interface{} { return nil }
