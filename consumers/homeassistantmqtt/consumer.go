// Package homeassistantmqtt would publish check results as Home Assistant
// MQTT discovery sensors. No MQTT client library appears anywhere in the
// retrieval pack, so rather than fabricate a dependency this consumer's
// factory always reports it was not built into this binary, exercising the
// same DependencyError path a missing optional plugin would.
package homeassistantmqtt

import "github.com/NicolasLM/sauna/registry"

// Factory always fails with a DependencyError: MQTT support is not compiled
// into this build.
func Factory(cfg map[string]any) (*registry.Consumer, error) {
	return nil, &registry.DependencyError{
		Plugin:  "home_assistant_mqtt",
		Library: "an MQTT client",
		Reason:  "not built in",
	}
}
