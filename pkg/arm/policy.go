package arm

// DefaultAPIVersion is the API Management resource API version
const DefaultAPIVersion = "2019-01-01"

// Policy controls how resources are emitted. The sequential flags chain
// sibling resources through dependsOn so the deployment engine creates them
// one after another.
type Policy struct {
	APIVersion           string `mapstructure:"apiVersion" yaml:"apiVersion"`
	SequentialAPIs       bool   `mapstructure:"sequentialApis" yaml:"sequentialApis"`
	SequentialOperations bool   `mapstructure:"sequentialOperations" yaml:"sequentialOperations"`
}

// DefaultPolicy returns the default emission policy
func DefaultPolicy() Policy {
	return Policy{
		APIVersion:           DefaultAPIVersion,
		SequentialAPIs:       true,
		SequentialOperations: true,
	}
}

func (p Policy) withDefaults() Policy {
	if p.APIVersion == "" {
		p.APIVersion = DefaultAPIVersion
	}
	return p
}
