// Package jsonutil provides typed decoders for JSON documents that encode
// numbers as strings.
//
// ffprobe stringifies nearly every numeric field and uses the literal "N/A"
// when a value is unavailable. Number and Optional are small generic
// wrappers that plug into encoding/json so model structs can declare the
// target numeric type once and get strict parsing for free:
//
//   - Number[T]: accepts only a JSON string and parses it as T
//   - Optional[T]: accepts "N/A" (absent) or a string parsed as T
//
// Both reject non-string JSON values with *json.UnmarshalTypeError carrying
// the offending input, so callers can report which field failed.
package jsonutil
