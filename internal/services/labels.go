package services

import "github.com/soaringjerry/Echoform/internal/utils"

// Labels are the localized strings substituted for missing data.
type Labels struct {
	NoCustomer      string
	UnnamedCustomer string
	CustomerPrefix  string
	SurveyPrefix    string
	UnknownSurvey   string
	QuestionPrefix  string
	UnknownQuestion string
}

func LabelsFor(locale string) Labels {
	return Labels{
		NoCustomer:      utils.T(locale, "customer.none"),
		UnnamedCustomer: utils.T(locale, "customer.unnamed"),
		CustomerPrefix:  utils.T(locale, "customer.prefix"),
		SurveyPrefix:    utils.T(locale, "survey.prefix"),
		UnknownSurvey:   utils.T(locale, "survey.unknown"),
		QuestionPrefix:  utils.T(locale, "question.prefix"),
		UnknownQuestion: utils.T(locale, "question.unknown"),
	}
}

// DefaultLabels are the English labels.
func DefaultLabels() Labels { return LabelsFor("en") }
