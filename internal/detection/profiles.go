package detection

import (
	"strings"
	"time"
)

// Threshold profiles calibrated for weekly surveillance counts. Diseases
// not listed here fall back to the engine default.
var defaultProfiles = map[string]Profile{
	"dengue": {
		WeeklyCaseThreshold: 30,
		GrowthRateThreshold: 0.3,
		PeakMonths:          []time.Month{time.June, time.July, time.August, time.September, time.October},
	},
	"malaria": {
		WeeklyCaseThreshold: 25,
		GrowthRateThreshold: 0.25,
		PeakMonths:          []time.Month{time.July, time.August, time.September, time.October, time.November},
	},
	"covid-19": {
		WeeklyCaseThreshold: 50,
		GrowthRateThreshold: 0.4,
	},
	"typhoid": {
		WeeklyCaseThreshold: 20,
		GrowthRateThreshold: 0.2,
		PeakMonths:          []time.Month{time.April, time.May, time.June, time.July, time.August},
	},
	"cholera": {
		WeeklyCaseThreshold: 15,
		GrowthRateThreshold: 0.35,
		PeakMonths:          []time.Month{time.June, time.July, time.August, time.September},
	},
	"influenza": {
		WeeklyCaseThreshold: 20,
		GrowthRateThreshold: 0.25,
		PeakMonths:          []time.Month{time.November, time.December, time.January, time.February},
	},
}

var baseRecommendations = map[string][]string{
	"dengue": {
		"Eliminate stagnant water sources",
		"Use mosquito repellent and nets",
		"Seek medical attention for high fever",
		"Maintain clean surroundings",
	},
	"malaria": {
		"Use insecticide-treated bed nets",
		"Apply mosquito repellent",
		"Seek immediate treatment for fever",
		"Keep surroundings clean and dry",
	},
	"covid-19": {
		"Wear masks in crowded places",
		"Maintain social distancing",
		"Get vaccinated if eligible",
		"Practice hand hygiene",
	},
	"typhoid": {
		"Drink only safe, boiled water",
		"Eat properly cooked food",
		"Maintain hand hygiene",
		"Avoid street food",
	},
	"cholera": {
		"Drink only safe, treated water",
		"Eat hot, freshly cooked food",
		"Maintain strict hygiene",
		"Seek immediate medical help for diarrhea",
	},
}

var genericRecommendations = []string{
	"Follow general hygiene practices",
	"Seek medical attention if symptoms occur",
	"Stay informed about health updates",
}

var elevatedRecommendations = []string{
	"Avoid crowded places if possible",
	"Report any symptoms immediately",
	"Follow local health authority guidelines",
}

func recommendationsFor(disease string, level RiskLevel) []string {
	base, ok := baseRecommendations[strings.ToLower(disease)]
	if !ok {
		base = genericRecommendations
	}

	recs := make([]string, 0, len(base)+len(elevatedRecommendations))
	recs = append(recs, base...)
	if level == RiskHigh || level == RiskCritical {
		recs = append(recs, elevatedRecommendations...)
	}
	return recs
}
