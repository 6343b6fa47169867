package models

// ControllerSpec describes a controller definition from controllers.toml.
// A spec is immutable once loaded; the registry factory combines it with
// runtime options (model override, LLM client) to build a controller.
type ControllerSpec struct {
	Type      string   `toml:"type" json:"type"`
	Role      string   `toml:"role" json:"role"`
	Goal      string   `toml:"goal" json:"goal"`
	Backstory string   `toml:"backstory,omitempty" json:"backstory,omitempty"`
	Model     string   `toml:"model,omitempty" json:"model,omitempty"`
	Tools     []string `toml:"tools,omitempty" json:"tools,omitempty"`
}
