package codec

import (
	"testing"
)

type benchEntry struct {
	ID       string         `json:"id"`
	Vector   []float32      `json:"vector,omitempty"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type benchSnapshot struct {
	Dimension int          `json:"dimension"`
	Tables    int          `json:"tables"`
	Bits      int          `json:"bits"`
	Entries   []benchEntry `json:"entries"`
}

func benchPayload() benchSnapshot {
	snap := benchSnapshot{Dimension: 32, Tables: 16, Bits: 12}
	for i := 0; i < 64; i++ {
		vec := make([]float32, snap.Dimension)
		for j := range vec {
			vec[j] = float32(i*j%17) / 17
		}
		snap.Entries = append(snap.Entries, benchEntry{
			ID:     "field." + string(rune('a'+i%26)),
			Vector: vec,
			Text:   "A short natural-language field description",
			Metadata: map[string]any{
				"type":     "string",
				"required": i%2 == 0,
			},
		})
	}
	return snap
}

func benchmarkMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm := MustMarshal(c, v)
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkUnmarshal(b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var snap benchSnapshot
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Unmarshal(data, &snap); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Marshal_Snapshot(b *testing.B) {
	snap := benchPayload()

	b.Run("stdlib", func(b *testing.B) { benchmarkMarshal(b, JSON{}, snap) })
	b.Run("go-json", func(b *testing.B) { benchmarkMarshal(b, GoJSON{}, snap) })
}

func BenchmarkCodec_Unmarshal_Snapshot(b *testing.B) {
	data := MustMarshal(JSON{}, benchPayload())

	b.Run("stdlib", func(b *testing.B) { benchmarkUnmarshal(b, JSON{}, data) })
	b.Run("go-json", func(b *testing.B) { benchmarkUnmarshal(b, GoJSON{}, data) })
}
