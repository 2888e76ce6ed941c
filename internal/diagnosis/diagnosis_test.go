package diagnosis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symptoms(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("s%d", i)
	}
	return out
}

func baseline() PatientInput {
	return PatientInput{Name: "Test", Age: 30, Temperature: 98.0, SystolicBP: 120, DiastolicBP: 80}
}

func TestAssess_EndToEndExample(t *testing.T) {
	got := Assess(PatientInput{
		Name:        "Alex",
		Age:         25,
		Temperature: 101.5,
		SystolicBP:  120,
		DiastolicBP: 80,
		Symptoms:    []string{"a", "b"},
	})

	assert.Equal(t, 50, got.RiskPercent)
	assert.Equal(t, RiskModerate, got.RiskLevel)
	assert.Equal(t, HighFever, got.TemperatureStatus)
	assert.Equal(t, BloodPressureNormal, got.BloodPressureStatus)
	assert.Equal(t, []string{"Paracetamol", "Antihistamine", "Vitamin C"}, got.RecommendedMedications)
}

// Expected percentages for every symptom count 0..14 across the three
// temperature bands and both age bands. Pins the float64 truncation.
func TestAssess_PercentTable(t *testing.T) {
	temps := []float64{98.0, 99.0, 100.4}
	ages := []int{30, 61}
	want := [][6]int{
		{25, 35, 33, 43, 40, 50},
		{30, 40, 38, 48, 44, 54},
		{35, 44, 43, 53, 50, 60},
		{40, 50, 48, 58, 55, 65},
		{45, 55, 53, 63, 60, 70},
		{50, 60, 57, 68, 65, 75},
		{55, 65, 63, 73, 70, 80},
		{60, 70, 68, 78, 75, 85},
		{65, 75, 73, 83, 80, 90},
		{70, 80, 77, 87, 85, 95},
		{75, 85, 83, 93, 90, 95},
		{80, 90, 88, 95, 95, 95},
		{85, 95, 93, 95, 95, 95},
		{90, 95, 95, 95, 95, 95},
		{95, 95, 95, 95, 95, 95},
	}

	for n, row := range want {
		col := 0
		for _, temp := range temps {
			for _, age := range ages {
				in := baseline()
				in.Symptoms = symptoms(n)
				in.Temperature = temp
				in.Age = age
				got := Assess(in)
				assert.Equal(t, row[col], got.RiskPercent, "symptoms=%d temp=%v age=%d", n, temp, age)
				col++
			}
		}
	}
}

func TestAssess_TemperatureBoundaries(t *testing.T) {
	tests := []struct {
		temp float64
		want TemperatureStatus
	}{
		{100.4, HighFever},
		{100.3999, MildFever},
		{99.0, MildFever},
		{98.9999, TemperatureNormal},
		{104.0, HighFever},
		{95.0, TemperatureNormal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.temp), func(t *testing.T) {
			in := baseline()
			in.Temperature = tt.temp
			assert.Equal(t, tt.want, Assess(in).TemperatureStatus)
		})
	}
}

func TestAssess_BloodPressureBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		sys, dia int
		want     BloodPressureStatus
	}{
		{"systolic 141", 141, 80, BloodPressureHigh},
		{"systolic 140", 140, 80, BloodPressureNormal},
		{"diastolic 91", 120, 91, BloodPressureHigh},
		{"diastolic 90", 120, 90, BloodPressureNormal},
		{"systolic 89", 89, 70, BloodPressureLow},
		{"diastolic 59", 110, 59, BloodPressureLow},
		{"lower edge", 90, 60, BloodPressureNormal},
		{"high wins over low", 150, 50, BloodPressureHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseline()
			in.SystolicBP, in.DiastolicBP = tt.sys, tt.dia
			assert.Equal(t, tt.want, Assess(in).BloodPressureStatus)
		})
	}
}

func TestAssess_BloodPressureDoesNotScore(t *testing.T) {
	normal := Assess(baseline())

	in := baseline()
	in.SystolicBP, in.DiastolicBP = 190, 120
	assert.Equal(t, normal.RiskPercent, Assess(in).RiskPercent)
}

func TestAssess_AgeBoundary(t *testing.T) {
	in := baseline()
	in.Age = 60
	assert.Equal(t, 25, Assess(in).RiskPercent)

	in.Age = 61
	assert.Equal(t, 35, Assess(in).RiskPercent)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, RiskHigh, levelFor(95))
	assert.Equal(t, RiskHigh, levelFor(70))
	assert.Equal(t, RiskModerate, levelFor(69))
	assert.Equal(t, RiskModerate, levelFor(40))
	assert.Equal(t, RiskLow, levelFor(39))
	assert.Equal(t, RiskLow, levelFor(0))
}

func TestAssess_LevelsAtThresholds(t *testing.T) {
	in := baseline()
	in.Symptoms = symptoms(9)
	got := Assess(in)
	require.Equal(t, 70, got.RiskPercent)
	assert.Equal(t, RiskHigh, got.RiskLevel)
	assert.Equal(t, []string{"Paracetamol", "Antiviral (doctor prescribed)", "Fluids"}, got.RecommendedMedications)

	in.Symptoms = symptoms(3)
	got = Assess(in)
	require.Equal(t, 40, got.RiskPercent)
	assert.Equal(t, RiskModerate, got.RiskLevel)

	in.Symptoms = symptoms(2)
	got = Assess(in)
	require.Equal(t, 35, got.RiskPercent)
	assert.Equal(t, RiskLow, got.RiskLevel)
	assert.Equal(t, []string{"Paracetamol (if needed)", "ORS", "Rest"}, got.RecommendedMedications)
}

func TestAssess_Clamp(t *testing.T) {
	got := Assess(PatientInput{Age: 70, Temperature: 101, SystolicBP: 120, DiastolicBP: 80, Symptoms: symptoms(10)})
	assert.Equal(t, 95, got.RiskPercent)
	assert.Equal(t, RiskHigh, got.RiskLevel)

	got = Assess(PatientInput{Age: 99, Temperature: 105, Symptoms: symptoms(200)})
	assert.Equal(t, 95, got.RiskPercent)
}

func TestAssess_Monotonic(t *testing.T) {
	t.Run("symptoms", func(t *testing.T) {
		prev := -1
		for n := 0; n <= 30; n++ {
			in := baseline()
			in.Symptoms = symptoms(n)
			got := Assess(in).RiskPercent
			assert.GreaterOrEqual(t, got, prev, "symptoms=%d", n)
			prev = got
		}
	})

	t.Run("temperature", func(t *testing.T) {
		prev := -1
		for temp := 95.0; temp <= 106.0; temp += 0.1 {
			in := baseline()
			in.Temperature = temp
			got := Assess(in).RiskPercent
			assert.GreaterOrEqual(t, got, prev, "temp=%v", temp)
			prev = got
		}
	})

	t.Run("age", func(t *testing.T) {
		prev := -1
		for age := 0; age <= 120; age++ {
			in := baseline()
			in.Age = age
			got := Assess(in).RiskPercent
			assert.GreaterOrEqual(t, got, prev, "age=%d", age)
			prev = got
		}
	})
}

func TestAssess_RangeAndPurity(t *testing.T) {
	for n := 0; n < 25; n++ {
		for _, temp := range []float64{90, 98.6, 99.5, 100.4, 103} {
			for _, age := range []int{0, 45, 61, 130} {
				in := PatientInput{Name: "p", Age: age, Temperature: temp, SystolicBP: 120, DiastolicBP: 80, Symptoms: symptoms(n)}
				first := Assess(in)
				second := Assess(in)

				assert.Equal(t, first, second)
				assert.GreaterOrEqual(t, first.RiskPercent, 0)
				assert.LessOrEqual(t, first.RiskPercent, 95)
			}
		}
	}
}

func TestAssess_DoesNotMutateInputOrTables(t *testing.T) {
	in := baseline()
	in.Symptoms = []string{"cough", "fever"}
	snapshot := append([]string(nil), in.Symptoms...)

	got := Assess(in)
	got.RecommendedMedications[0] = "changed"

	assert.Equal(t, snapshot, in.Symptoms)
	assert.Equal(t, "Paracetamol (if needed)", Assess(in).RecommendedMedications[0])
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "HIGH RISK", RiskHigh.Label())
	assert.Equal(t, "MODERATE RISK", RiskModerate.Label())
	assert.Equal(t, "LOW RISK", RiskLow.Label())
	assert.Equal(t, "High Fever", HighFever.Label())
	assert.Equal(t, "Mild Fever", MildFever.Label())
	assert.Equal(t, "Normal", TemperatureNormal.Label())
	assert.Equal(t, "High BP", BloodPressureHigh.Label())
	assert.Equal(t, "Low BP", BloodPressureLow.Label())
	assert.Equal(t, "Normal BP", BloodPressureNormal.Label())
}
