package diagnosis

// RiskLevel is the coarse bucket derived from the risk percentage.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Label returns the text shown to patients, e.g. "HIGH RISK".
func (l RiskLevel) Label() string {
	return string(l) + " RISK"
}

type TemperatureStatus string

const (
	TemperatureNormal TemperatureStatus = "NORMAL"
	MildFever         TemperatureStatus = "MILD_FEVER"
	HighFever         TemperatureStatus = "HIGH_FEVER"
)

func (s TemperatureStatus) Label() string {
	switch s {
	case HighFever:
		return "High Fever"
	case MildFever:
		return "Mild Fever"
	default:
		return "Normal"
	}
}

type BloodPressureStatus string

const (
	BloodPressureNormal BloodPressureStatus = "NORMAL"
	BloodPressureLow    BloodPressureStatus = "LOW"
	BloodPressureHigh   BloodPressureStatus = "HIGH"
)

func (s BloodPressureStatus) Label() string {
	switch s {
	case BloodPressureHigh:
		return "High BP"
	case BloodPressureLow:
		return "Low BP"
	default:
		return "Normal BP"
	}
}

// PatientInput is the parsed form submission. Temperature is in Fahrenheit,
// blood pressure in mmHg.
type PatientInput struct {
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	Temperature float64  `json:"temperature"`
	SystolicBP  int      `json:"sys_bp"`
	DiastolicBP int      `json:"dia_bp"`
	Symptoms    []string `json:"symptoms"`
}

type RiskAssessment struct {
	RiskPercent            int                 `json:"riskPercent"`
	RiskLevel              RiskLevel           `json:"riskLevel"`
	TemperatureStatus      TemperatureStatus   `json:"temperatureStatus"`
	BloodPressureStatus    BloodPressureStatus `json:"bloodPressureStatus"`
	RecommendedMedications []string            `json:"recommendedMedications"`
}

const (
	baseProbability    = 0.25
	perSymptom         = 0.05
	highFeverIncrement = 0.15
	mildFeverIncrement = 0.08
	seniorIncrement    = 0.10
	maxProbability     = 0.95

	highFeverThreshold = 100.4
	mildFeverThreshold = 99.0

	highPercent     = 70
	moderatePercent = 40
	seniorAge       = 60
)

var medications = map[RiskLevel][]string{
	RiskHigh:     {"Paracetamol", "Antiviral (doctor prescribed)", "Fluids"},
	RiskModerate: {"Paracetamol", "Antihistamine", "Vitamin C"},
	RiskLow:      {"Paracetamol (if needed)", "ORS", "Rest"},
}

// Assess scores a patient. It is pure: no I/O, no shared state, and the
// input is never modified.
//
// The additions happen in a fixed order on float64 and the result is
// truncated, so percentages carry the usual binary rounding artifacts
// (0.25+0.05+0.15 scores 44, not 45).
func Assess(in PatientInput) RiskAssessment {
	p := baseProbability
	// explicit conversions keep the compiler from fusing into an FMA
	p += float64(perSymptom * float64(len(in.Symptoms)))

	tempStatus := classifyTemperature(in.Temperature)
	switch tempStatus {
	case HighFever:
		p += highFeverIncrement
	case MildFever:
		p += mildFeverIncrement
	}

	bpStatus := classifyBloodPressure(in.SystolicBP, in.DiastolicBP)

	if in.Age > seniorAge {
		p += seniorIncrement
	}

	p = min(p, maxProbability)
	percent := int(float64(p * 100))

	level := levelFor(percent)
	return RiskAssessment{
		RiskPercent:            percent,
		RiskLevel:              level,
		TemperatureStatus:      tempStatus,
		BloodPressureStatus:    bpStatus,
		RecommendedMedications: Medications(level),
	}
}

// Medications returns a copy of the fixed medication list for a level.
func Medications(level RiskLevel) []string {
	meds := medications[level]
	out := make([]string, len(meds))
	copy(out, meds)
	return out
}

func classifyTemperature(temp float64) TemperatureStatus {
	switch {
	case temp >= highFeverThreshold:
		return HighFever
	case temp >= mildFeverThreshold:
		return MildFever
	default:
		return TemperatureNormal
	}
}

func classifyBloodPressure(sys, dia int) BloodPressureStatus {
	switch {
	case sys > 140 || dia > 90:
		return BloodPressureHigh
	case sys < 90 || dia < 60:
		return BloodPressureLow
	default:
		return BloodPressureNormal
	}
}

func levelFor(percent int) RiskLevel {
	switch {
	case percent >= highPercent:
		return RiskHigh
	case percent >= moderatePercent:
		return RiskModerate
	default:
		return RiskLow
	}
}
