package ffprobe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"bitgraph/internal/jsonutil"
	"bitgraph/internal/services"
)

// ProbeData represents the parsed output from an ffprobe inspection. Every
// section is optional: ffprobe omits what was not requested or could not be
// produced. A nil slice means the key was absent; an empty JSON array decodes
// to an empty, non-nil slice.
type ProbeData struct {
	Packets []Packet    `json:"packets,omitempty"`
	Streams []Stream    `json:"streams,omitempty"`
	Format  *Format     `json:"format,omitempty"`
	Error   *ProbeError `json:"error,omitempty"`
}

// Packet describes a single demuxed packet. Packets arrive in container
// order and must be sorted explicitly before use.
type Packet struct {
	StreamIndex uint64
	PTS         int64
	PTSTime     float64
	Size        uint32
}

type packetJSON struct {
	StreamIndex uint64                   `json:"stream_index"`
	PTS         int64                    `json:"pts"`
	PTSTime     jsonutil.Number[float64] `json:"pts_time"`
	Size        jsonutil.Number[uint32]  `json:"size"`
}

// UnmarshalJSON decodes the string-encoded pts_time and size fields.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var raw packetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ptsTime, err := raw.PTSTime.Required("pts_time")
	if err != nil {
		return fmt.Errorf("packet: %w", err)
	}
	if math.IsNaN(ptsTime) || math.IsInf(ptsTime, 0) {
		return fmt.Errorf("packet: pts_time %v is not finite", ptsTime)
	}
	size, err := raw.Size.Required("size")
	if err != nil {
		return fmt.Errorf("packet: %w", err)
	}
	*p = Packet{
		StreamIndex: raw.StreamIndex,
		PTS:         raw.PTS,
		PTSTime:     ptsTime,
		Size:        size,
	}
	return nil
}

// MarshalJSON writes the packet in ffprobe's string-encoded form.
func (p Packet) MarshalJSON() ([]byte, error) {
	return json.Marshal(packetJSON{
		StreamIndex: p.StreamIndex,
		PTS:         p.PTS,
		PTSTime:     jsonutil.Number[float64]{Value: p.PTSTime, Set: true},
		Size:        jsonutil.Number[uint32]{Value: p.Size, Set: true},
	})
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     uint64 `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type,omitempty"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename       string
	FormatName     string
	FormatLongName string
	StartTime      *float64
	Duration       *float64
	Size           uint64
	BitRate        uint64
}

type formatJSON struct {
	Filename       string                     `json:"filename"`
	FormatName     string                     `json:"format_name"`
	FormatLongName string                     `json:"format_long_name"`
	StartTime      jsonutil.Optional[float64] `json:"start_time"`
	Duration       jsonutil.Optional[float64] `json:"duration"`
	Size           jsonutil.Number[uint64]    `json:"size"`
	BitRate        jsonutil.Number[uint64]    `json:"bit_rate"`
}

// UnmarshalJSON decodes the string-encoded and "N/A" capable fields.
func (f *Format) UnmarshalJSON(data []byte) error {
	var raw formatJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	size, err := raw.Size.Required("size")
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	bitRate, err := raw.BitRate.Required("bit_rate")
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	*f = Format{
		Filename:       raw.Filename,
		FormatName:     raw.FormatName,
		FormatLongName: raw.FormatLongName,
		StartTime:      raw.StartTime.Ptr(),
		Duration:       raw.Duration.Ptr(),
		Size:           size,
		BitRate:        bitRate,
	}
	return nil
}

// MarshalJSON writes the format in ffprobe's string-encoded form.
func (f Format) MarshalJSON() ([]byte, error) {
	raw := formatJSON{
		Filename:       f.Filename,
		FormatName:     f.FormatName,
		FormatLongName: f.FormatLongName,
		Size:           jsonutil.Number[uint64]{Value: f.Size, Set: true},
		BitRate:        jsonutil.Number[uint64]{Value: f.BitRate, Set: true},
	}
	if f.StartTime != nil {
		raw.StartTime = jsonutil.Optional[float64]{Value: *f.StartTime, Valid: true}
	}
	if f.Duration != nil {
		raw.Duration = jsonutil.Optional[float64]{Value: *f.Duration, Valid: true}
	}
	return json.Marshal(raw)
}

// ProbeError is the structured failure ffprobe embeds in its output when it
// cannot read the input (for example a corrupt or unsupported file).
type ProbeError struct {
	Code    int    `json:"code"`
	Message string `json:"string"`
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("ffprobe error %d: %s", e.Code, e.Message)
}

// ToolCode returns the numeric code ffprobe reported.
func (e *ProbeError) ToolCode() int { return e.Code }

// ToolMessage returns ffprobe's message verbatim.
func (e *ProbeError) ToolMessage() string { return e.Message }

// ProgramVersion describes the ffprobe build. Diagnostic only.
type ProgramVersion struct {
	Version       string `json:"version"`
	Copyright     string `json:"copyright"`
	CompilerIdent string `json:"compiler_ident"`
	Configuration string `json:"configuration"`
}

type programVersionEnvelope struct {
	ProgramVersion *ProgramVersion `json:"program_version"`
}

// Decode reads a single ffprobe JSON document from r. Malformed JSON and
// schema mismatches are reported as decode failures; a well-formed document
// with no sections decodes to an empty ProbeData without error.
func Decode(r io.Reader) (ProbeData, error) {
	var data ProbeData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return ProbeData{}, services.Wrap(services.ErrDecode, "ffprobe", "decode", "probe data", err)
	}
	return data, nil
}

// DurationSeconds returns the container duration when ffprobe reported one.
func (d ProbeData) DurationSeconds() (float64, bool) {
	if d.Format == nil || d.Format.Duration == nil {
		return 0, false
	}
	return *d.Format.Duration, true
}

// PacketCount returns the number of packets in the given stream.
func (d ProbeData) PacketCount(streamIndex uint64) int {
	count := 0
	for _, pkt := range d.Packets {
		if pkt.StreamIndex == streamIndex {
			count++
		}
	}
	return count
}

// StreamByIndex returns the stream with the given index.
func (d ProbeData) StreamByIndex(index uint64) (Stream, bool) {
	for _, stream := range d.Streams {
		if stream.Index == index {
			return stream, true
		}
	}
	return Stream{}, false
}
