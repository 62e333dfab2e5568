package jenkins

// Property classes known to this package.
const (
	ParametersDefinitionPropertyClass = "hudson.model.ParametersDefinitionProperty"
	MailerUserPropertyClass           = "hudson.tasks.Mailer$UserProperty"
)

// Property is an entry in the `property` list of jobs, views and users.
type Property interface {
	ClassName() string
}

var propertyRegistry = newRegistry[Property]("property", fallback[Property, CommonProperty])

func init() {
	RegisterPropertyClass(ParametersDefinitionPropertyClass, func() Property { return &ParametersDefinitionProperty{} })
	RegisterPropertyClass(MailerUserPropertyClass, func() Property { return &MailerUserProperty{} })
}

// RegisterPropertyClass makes properties of class decode into the value
// returned by factory, which must be a pointer.
func RegisterPropertyClass(class string, factory func() Property) {
	propertyRegistry.register(class, factory)
}

// Properties decodes a heterogeneous list of properties.
type Properties []Property

// UnmarshalJSON implements json.Unmarshaler.
func (p *Properties) UnmarshalJSON(data []byte) error {
	items, err := propertyRegistry.decodeList(data)

	if err != nil {
		return err
	}

	*p = items
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Properties) MarshalJSON() ([]byte, error) {
	return encodeList(p)
}

// CommonProperty is a property of a class without a registered type.
type CommonProperty struct {
	raw
}

// ParameterDefault is the default value of a parameter definition.
type ParameterDefault struct {
	Class string      `json:"_class"`
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// ParameterDefinition describes a parameter a job accepts.
type ParameterDefinition struct {
	Class                 string            `json:"_class"`
	Name                  string            `json:"name"`
	Type                  string            `json:"type"`
	Description           string            `json:"description"`
	DefaultParameterValue *ParameterDefault `json:"defaultParameterValue"`
	Choices               []string          `json:"choices,omitempty"`
}

// ParametersDefinitionProperty lists the parameters of a job.
type ParametersDefinitionProperty struct {
	ParameterDefinitions []ParameterDefinition `json:"parameterDefinitions"`
}

// ClassName implements Property.
func (ParametersDefinitionProperty) ClassName() string { return ParametersDefinitionPropertyClass }

// MailerUserProperty holds the mail address of a user.
type MailerUserProperty struct {
	Address string `json:"address"`
}

// ClassName implements Property.
func (MailerUserProperty) ClassName() string { return MailerUserPropertyClass }
