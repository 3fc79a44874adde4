package resolve

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a wire payload into out, which must be a non-nil
// pointer. Struct fields are matched by their `json` tag so the same
// types serve JSON and CBOR transports.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decoding %T result: %w", input, err)
	}
	return nil
}
