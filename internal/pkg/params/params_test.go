package params

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmc-tools/pmcconf/internal/pkg/convert"
	"github.com/pmc-tools/pmcconf/internal/pkg/document"
)

const samplePMC = `<?xml version="1.0" encoding="utf-8"?>
<pmc>
  <device>
    <name>VOLT_12V</name>
    <class>sensor</class>
    <dev_name>psu rail</dev_name>
    <config><variable>POLL_MS</variable><value>0x64</value></config>
    <sdr>
      <name>12v rail record</name>
      <config><variable>M_VAL</variable><value>100</value></config>
      <config><variable>R_EXP</variable><value>-3</value></config>
      <config><variable>UPPER_CRITICAL</variable><value>0x78</value></config>
      <config><variable>LOWER_CRITICAL</variable><value>0x6e</value></config>
    </sdr>
  </device>
  <device>
    <name>CPU_TEMP</name>
    <class>sensor</class>
    <dev_name>cpu0</dev_name>
    <config><variable>M_VAL</variable><value>1</value></config>
    <config><variable>R_EXP</variable><value>0</value></config>
    <sdr>
      <name>cpu temp record</name>
      <config><variable>M_VAL</variable><value>2</value></config>
      <config><variable>R_EXP</variable><value>1</value></config>
      <config><variable>UPPER_CRITICAL</variable><value>0x28</value></config>
    </sdr>
  </device>
  <device>
    <name>AMBIENT</name>
    <class>sensor</class>
    <dev_name>chassis</dev_name>
    <sdr>
      <name>ambient record</name>
      <config><variable>UPPER_CRITICAL</variable><value>0x30</value></config>
    </sdr>
  </device>
</pmc>
`

func loadDevice(t *testing.T, name string) *document.Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pmc")
	require.NoError(t, os.WriteFile(path, []byte(samplePMC), 0o644))
	doc, err := document.Load(path)
	require.NoError(t, err)
	dev, err := doc.Find(name)
	require.NoError(t, err)
	return dev
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "0x78", want: 120},
		{in: "0X2D", want: 45},
		{in: "120", want: 120},
		{in: "-3", want: -3},
		{in: "-0x5", want: -5},
		{in: "+0x2d", want: 45},
		{in: " 0x28 ", want: 40},
		{in: "-0xzz", wantErr: true},
		{in: "12.5", wantErr: true},
		{in: "0xzz", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseRaw(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "0x78", FormatRaw(120))
	assert.Equal(t, "0x0", FormatRaw(0))
	assert.Equal(t, "0x2d", FormatRaw(45))
	assert.Equal(t, "-0x5", FormatRaw(-5))
}

func TestRawLiteralRoundTrip(t *testing.T) {
	// Negative values format as -0x... and must parse back.
	for _, v := range []int64{-5, -120, 0, 5, 120} {
		got, err := ParseRaw(FormatRaw(v))
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got, "value %d", v)
	}
}

func TestFormatReal(t *testing.T) {
	assert.Equal(t, "12.5", FormatReal(12.5))
	assert.Equal(t, "40", FormatReal(40.0))
	assert.Equal(t, "-5", FormatReal(-5.0))
}

func TestAlignReal(t *testing.T) {
	got := AlignReal("  UPPER_CRITICAL: 0x28", 40.0)
	assert.Equal(t, "  UPPER_CRITICAL: 0x28          (40)", got)
	assert.Equal(t, 32, strings.IndexByte(got, '('))

	// Lines already past the column still get one separating space.
	long := strings.Repeat("x", 40)
	assert.Equal(t, long+" (40)", AlignReal(long, 40.0))
}

func TestCoefficients_DeviceLevelWinsOverSDR(t *testing.T) {
	dev := loadDevice(t, "CPU_TEMP")
	c, err := Coefficients(dev)
	require.NoError(t, err)
	assert.Equal(t, convert.Coefficients{MVal: 1, RExp: 0}, c)
}

func TestCoefficients_FallsBackToSDR(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	c, err := Coefficients(dev)
	require.NoError(t, err)
	assert.Equal(t, convert.Coefficients{MVal: 100, RExp: -3}, c)
}

func TestCoefficients_Missing(t *testing.T) {
	dev := loadDevice(t, "AMBIENT")
	_, err := Coefficients(dev)
	assert.ErrorIs(t, err, convert.ErrMissingCoefficients)
}

func TestGet_ThresholdWithConversion(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	view, err := Get(dev, "UPPER_CRITICAL")
	require.NoError(t, err)

	assert.Equal(t, "0x78", view.Raw)
	assert.Equal(t, "0x78", view.Hex)
	assert.True(t, view.Threshold)
	require.NotNil(t, view.Real)
	assert.InDelta(t, 12.0, *view.Real, 1e-9)
}

func TestGet_ThresholdWithoutCoefficientsFallsBackToRaw(t *testing.T) {
	dev := loadDevice(t, "AMBIENT")
	view, err := Get(dev, "UPPER_CRITICAL")
	require.NoError(t, err)
	assert.True(t, view.Threshold)
	assert.Nil(t, view.Real)
	assert.Equal(t, "0x30", view.Raw)
}

func TestGet_NonThreshold(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	view, err := Get(dev, "POLL_MS")
	require.NoError(t, err)
	assert.False(t, view.Threshold)
	assert.Nil(t, view.Real)
	assert.Equal(t, "0x64", view.Raw)
}

func TestGet_VariableNotFound(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	_, err := Get(dev, "NO_SUCH_VAR")
	assert.ErrorIs(t, err, ErrVariableNotFound)
}

func TestSet_RealValueConverted(t *testing.T) {
	dev := loadDevice(t, "CPU_TEMP")

	raw, err := Set(dev, "UPPER_CRITICAL", "45.0")
	require.NoError(t, err)
	assert.Equal(t, int64(45), raw)

	view, err := Get(dev, "UPPER_CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, "0x2d", view.Raw)
	require.NotNil(t, view.Real)
	assert.InDelta(t, 45.0, *view.Real, 1e-9)
}

func TestSet_NegativeRealValueRoundTrips(t *testing.T) {
	// M_VAL=1, R_EXP=0: real -5.0 -> raw -5, stored as -0x5. The stored
	// literal must read back with the real value intact.
	dev := loadDevice(t, "CPU_TEMP")
	raw, err := Set(dev, "UPPER_CRITICAL", "-5.0")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), raw)

	view, err := Get(dev, "UPPER_CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, "-0x5", view.Raw)
	assert.Equal(t, "-0x5", view.Hex)
	require.NotNil(t, view.Real)
	assert.InDelta(t, -5.0, *view.Real, 1e-9)
}

func TestSet_NegativeHexLiteralIsRaw(t *testing.T) {
	dev := loadDevice(t, "CPU_TEMP")
	raw, err := Set(dev, "UPPER_CRITICAL", "-0x5")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), raw)

	v, ok := dev.Param("UPPER_CRITICAL")
	require.True(t, ok)
	assert.Equal(t, "-0x5", v.Get())
}

func TestSet_WorkedExample(t *testing.T) {
	// M_VAL=100, R_EXP=-3: real 12.0 -> raw round(12.0/0.1) = 120 = 0x78.
	dev := loadDevice(t, "VOLT_12V")
	raw, err := Set(dev, "LOWER_CRITICAL", "12.0")
	require.NoError(t, err)
	assert.Equal(t, int64(120), raw)

	v, ok := dev.Param("LOWER_CRITICAL")
	require.True(t, ok)
	assert.Equal(t, "0x78", v.Get())
}

func TestSet_HexAndPlainIntegersAreRaw(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")

	// Hex literals are raw, stored as given, even for thresholds.
	raw, err := Set(dev, "UPPER_CRITICAL", "0x7d")
	require.NoError(t, err)
	assert.Equal(t, int64(125), raw)
	v, _ := dev.Param("UPPER_CRITICAL")
	assert.Equal(t, "0x7d", v.Get())

	// A plain integer is ambiguous; raw wins, stored verbatim.
	raw, err = Set(dev, "UPPER_CRITICAL", "125")
	require.NoError(t, err)
	assert.Equal(t, int64(125), raw)
	v, _ = dev.Param("UPPER_CRITICAL")
	assert.Equal(t, "125", v.Get())
}

func TestSet_NonThresholdRejectsRealInput(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	_, err := Set(dev, "POLL_MS", "12.5")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Set(dev, "POLL_MS", "not-a-number")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestSet_ThresholdWithoutCoefficientsFails(t *testing.T) {
	dev := loadDevice(t, "AMBIENT")
	_, err := Set(dev, "UPPER_CRITICAL", "12.5")
	assert.ErrorIs(t, err, convert.ErrMissingCoefficients)
}

func TestSet_CreatesMissingDeviceLevelVariable(t *testing.T) {
	dev := loadDevice(t, "VOLT_12V")
	_, err := Set(dev, "BRAND_NEW", "0x5")
	require.NoError(t, err)

	view, err := Get(dev, "BRAND_NEW")
	require.NoError(t, err)
	assert.Equal(t, "0x5", view.Raw)
}

func TestIsThreshold(t *testing.T) {
	assert.True(t, IsThreshold("UPPER_CRITICAL"))
	assert.True(t, IsThreshold("NOMINAL_READING"))
	assert.True(t, IsThreshold("SDR_SEN_MAX"))
	assert.False(t, IsThreshold("LWR_T_MASK"))
	assert.False(t, IsThreshold("POLL_MS"))
}

func TestChangeSet(t *testing.T) {
	cs := NewChangeSet()
	assert.True(t, cs.Empty())

	cs.Add("UPPER_CRITICAL", "0x2d")
	cs.Add("LWR_T_MASK", "0x7")
	cs.Add("UPPER_CRITICAL", "0x2e") // update in place, order kept

	require.Equal(t, 2, cs.Len())
	assert.Equal(t, Change{Name: "UPPER_CRITICAL", Value: "0x2e"}, cs.Entries()[0])
	assert.Equal(t, Change{Name: "LWR_T_MASK", Value: "0x7"}, cs.Entries()[1])
}
