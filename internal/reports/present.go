package reports

import (
	"strings"
	"sync"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesboard/internal/analytics"
)

var countries = sync.OnceValue(gountries.New)

// CountryName renders a territory's country as its common English name. ISO
// alpha-2/alpha-3 codes and official names are resolved; anything else is
// upper-cased when it looks like a code and title-cased otherwise.
func CountryName(country string) string {
	country = strings.TrimSpace(country)
	if country == "" || country == analytics.UnknownLabel {
		return analytics.UnknownLabel
	}

	query := countries()
	if c, err := query.FindCountryByAlpha(country); err == nil {
		return c.Name.Common
	}
	if c, err := query.FindCountryByName(country); err == nil {
		return c.Name.Common
	}

	if len(country) <= 3 {
		return cases.Upper(language.AmericanEnglish).String(country)
	}
	return cases.Title(language.AmericanEnglish).String(country)
}

func presentTerritories(report *analytics.DiscountReport) {
	for i := range report.TerritoryAnalysis {
		report.TerritoryAnalysis[i].Country = CountryName(report.TerritoryAnalysis[i].Country)
	}
	if report.HighestDiscount != nil {
		highest := *report.HighestDiscount
		highest.Country = CountryName(highest.Country)
		report.HighestDiscount = &highest
	}
}
