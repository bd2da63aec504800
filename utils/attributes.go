package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a free-form configuration block, decoded into typed plugin
// config structs at initialize time.
type AttributeMap map[string]interface{}

// Decode fills out (a pointer to a config struct) from the attribute map.
// Unknown keys are an error so that typos in configuration fail fast.
func (am AttributeMap) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "json",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]interface{}(am)); err != nil {
		return errors.Wrap(err, "cannot decode attributes")
	}
	return nil
}
