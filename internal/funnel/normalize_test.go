package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBooleanLike(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "canonical yes", raw: "Si", want: LabelYes},
		{name: "upper with trailing space", raw: "SI ", want: LabelYes},
		{name: "accented", raw: "Sí", want: LabelYes},
		{name: "english", raw: "yes", want: LabelYes},
		{name: "true", raw: "TRUE", want: LabelYes},
		{name: "one", raw: "1", want: LabelYes},
		{name: "video call marker", raw: "VC", want: LabelYes},
		{name: "canonical no", raw: "No", want: LabelNo},
		{name: "blank", raw: "  ", want: LabelNo},
		{name: "empty", raw: "", want: LabelNo},
		{name: "nan", raw: "nan", want: LabelNo},
		{name: "none", raw: "None", want: LabelNo},
		{name: "free text", raw: "pending reply", want: LabelNo},
		{name: "partial token", raw: "sii", want: LabelNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBooleanLike(tt.raw))
		})
	}
}

func TestNormalizeBooleanLike_Idempotent(t *testing.T) {
	for _, raw := range []string{"Si", "No", "vc", "", "garbage", "  yes  "} {
		once := NormalizeBooleanLike(raw)
		assert.Equal(t, once, NormalizeBooleanLike(once), "raw=%q", raw)
	}
}

func TestNormalizeBooleanLike_Total(t *testing.T) {
	inputs := []string{"", " ", "\t\n", "ñ", "🙂", "SI\x00", "1.0", "-1", "si no", string([]byte{0xff, 0xfe})}
	for _, raw := range inputs {
		got := NormalizeBooleanLike(raw)
		assert.Contains(t, []string{LabelYes, LabelNo}, got, "raw=%q", raw)
	}
}

func TestBooleanNormalizer_CustomTokens(t *testing.T) {
	n := NewBooleanNormalizer([]string{"done", "✓"}, nil, false)

	assert.Equal(t, LabelYes, n.Normalize(" DONE "))
	assert.Equal(t, LabelYes, n.Normalize("✓"))
	assert.Equal(t, LabelNo, n.Normalize("si"), "custom set replaces the defaults")
}

func TestBooleanNormalizer_Classify(t *testing.T) {
	strict := NewBooleanNormalizer(nil, nil, true)
	lenient := NewBooleanNormalizer(nil, nil, false)

	tests := []struct {
		raw            string
		wantLabel      string
		wantStrictOK   bool
		wantLenientOK  bool
	}{
		{raw: "si", wantLabel: LabelYes, wantStrictOK: true, wantLenientOK: true},
		{raw: "no", wantLabel: LabelNo, wantStrictOK: true, wantLenientOK: true},
		{raw: "", wantLabel: LabelNo, wantStrictOK: true, wantLenientOK: true},
		{raw: "No", wantLabel: LabelNo, wantStrictOK: true, wantLenientOK: true},
		{raw: "maybe", wantLabel: LabelNo, wantStrictOK: false, wantLenientOK: true},
		{raw: "pendiente", wantLabel: LabelNo, wantStrictOK: false, wantLenientOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			label, ok := strict.Classify(tt.raw)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantStrictOK, ok)
			assert.Equal(t, strict.Normalize(tt.raw), label, "strict mode must not change labels")

			label, ok = lenient.Classify(tt.raw)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantLenientOK, ok)
		})
	}
}

func TestNormalizeCategorical(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		def  string
		want string
	}{
		{name: "trimmed value", raw: "  Chile ", def: DefaultCategoricalLabel, want: "Chile"},
		{name: "empty", raw: "", def: DefaultCategoricalLabel, want: "N/D"},
		{name: "blank", raw: "   ", def: DefaultCategoricalLabel, want: "N/D"},
		{name: "nan", raw: "NaN", def: DefaultCategoricalLabel, want: "N/D"},
		{name: "none", raw: "none", def: "Sin dato", want: "Sin dato"},
		{name: "explicit n/d", raw: "N/D", def: "Unknown", want: "Unknown"},
		{name: "case preserved", raw: "fintech", def: DefaultCategoricalLabel, want: "fintech"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategorical(tt.raw, tt.def))
		})
	}
}

func TestCategoricalNormalizer_TitleCase(t *testing.T) {
	names := NewCategoricalNormalizer("", nil, true)
	plain := NewCategoricalNormalizer("", nil, false)

	assert.Equal(t, "María José Pérez", names.Normalize("  MARÍA josé pérez "))
	assert.Equal(t, "N/D", names.Normalize("nan"))
	assert.Equal(t, "MARÍA josé", plain.Normalize("MARÍA josé"))
}

func TestCategoricalNormalizer_CustomMarkers(t *testing.T) {
	n := NewCategoricalNormalizer("Sin país", []string{"-", "?"}, false)

	assert.Equal(t, "Sin país", n.Normalize("-"))
	assert.Equal(t, "Sin país", n.Normalize(""))
	assert.Equal(t, "nan", n.Normalize("nan"), "custom markers replace the defaults")
}
