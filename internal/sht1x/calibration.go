package sht1x

import (
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile holds the conversion coefficients for one sensor model, supply
// voltage and resolution. Temperature is raw*D2 + D1; humidity uses the
// C1..C3 linearisation and the T1, T2 temperature compensation.
type Profile struct {
	D1 float64 `yaml:"d1"`
	D2 float64 `yaml:"d2"`
	C1 float64 `yaml:"c1"`
	C2 float64 `yaml:"c2"`
	C3 float64 `yaml:"c3"`
	T1 float64 `yaml:"t1"`
	T2 float64 `yaml:"t2"`
}

// DefaultProfile is the SHT1x datasheet set for 14-bit temperature at 3V and
// 12-bit humidity.
var DefaultProfile = Profile{
	D1: -39.6,
	D2: 0.01,
	C1: -2.0468,
	C2: 0.0367,
	C3: -0.0000015955,
	T1: 0.01,
	T2: 0.00008,
}

// Temperature converts a raw temperature reading to degrees Celsius.
func (p Profile) Temperature(raw uint16) float64 {
	return float64(raw)*p.D2 + p.D1
}

// Humidity converts a raw humidity reading to %RH, compensated for the given
// temperature and rounded to one decimal.
func (p Profile) Humidity(raw uint16, temperature float64) float64 {
	r := float64(raw)
	// Conversions keep each product rounded so no platform fuses them.
	linear := p.C1 + float64(p.C2*r) + float64(p.C3*r*r)
	return round1(float64((temperature-25.0)*(p.T1+float64(p.T2*r))) + linear)
}

// WithDefaults returns p with every zero coefficient replaced by the
// DefaultProfile value.
func (p Profile) WithDefaults() Profile {
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.D1, DefaultProfile.D1)
	fill(&p.D2, DefaultProfile.D2)
	fill(&p.C1, DefaultProfile.C1)
	fill(&p.C2, DefaultProfile.C2)
	fill(&p.C3, DefaultProfile.C3)
	fill(&p.T1, DefaultProfile.T1)
	fill(&p.T2, DefaultProfile.T2)
	return p
}

// Validate rejects profiles that cannot produce finite readings.
func (p Profile) Validate() error {
	for name, v := range map[string]float64{
		"d1": p.D1, "d2": p.D2, "c1": p.C1, "c2": p.C2, "c3": p.C3, "t1": p.T1, "t2": p.T2,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("profile: %s is not finite", name)
		}
	}
	if p.D2 == 0 {
		return errors.New("profile: d2 must not be zero")
	}
	return nil
}

// LoadProfile reads a YAML calibration profile. Keys missing from the file
// keep their DefaultProfile value.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(err, "read profile")
	}
	p := DefaultProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Wrapf(err, "parse profile %s", path)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Magnus coefficients above and below freezing.
const (
	tnWater = 243.12
	mWater  = 17.62
	tnIce   = 272.62
	mIce    = 22.46
)

// DewPoint returns the dew point in degrees Celsius for a temperature in
// degrees Celsius and a relative humidity in percent.
func DewPoint(temperature, humidity float64) (float64, error) {
	if math.IsNaN(humidity) || humidity <= 0 {
		return 0, &DomainError{Humidity: humidity}
	}

	tn, m := tnIce, mIce
	if temperature > 0 {
		tn, m = tnWater, mWater
	}

	lnRH := math.Log(humidity / 100.0)
	mt := m * temperature / (tn + temperature)
	return tn * (lnRH + mt) / (m - lnRH - mt), nil
}

// round1 rounds the exact binary value of x to one decimal, ties to even.
func round1(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return v
}
