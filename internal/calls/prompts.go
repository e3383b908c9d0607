package calls

// Prompts holds every spoken line and classification keyword used on a live
// call. Defaults are the French prospection script this service ships with.
type Prompts struct {
	Voice    string
	Language string

	// DefaultScript is spoken when the initiate request carries no script.
	DefaultScript string

	// GatherPrompt is spoken inside the input-collection verb.
	GatherPrompt string

	// InvalidCall is spoken when a webhook references an unknown session.
	InvalidCall string

	InterestedClosing   string
	OptOutClosing       string
	UnrecognizedClosing string
	NoInputClosing      string

	// AffirmativeKeyword marks a speech result as "more info" when it
	// appears as a case-insensitive substring. OptOutKeyword likewise for
	// "opt out".
	AffirmativeKeyword string
	OptOutKeyword      string
}

func DefaultPrompts() Prompts {
	return Prompts{
		Voice:    "Polly.Céline",
		Language: "fr-FR",

		DefaultScript: "Bonjour, ceci est un appel de prospection.",
		GatherPrompt:  "Pour en savoir plus, appuyez sur 1. Pour ne plus être contacté, appuyez sur 2.",
		InvalidCall:   "Désolé, une erreur est survenue. Cet appel n'est pas valide.",

		InterestedClosing:   "Merci de votre intérêt. Un de nos conseillers vous contactera prochainement pour vous donner plus d'informations.",
		OptOutClosing:       "Nous avons bien noté votre demande. Vous ne serez plus contacté par nos services. Au revoir.",
		UnrecognizedClosing: "Je n'ai pas compris votre réponse. Merci de votre attention, au revoir.",
		NoInputClosing:      "Nous n'avons pas reçu de réponse. Nous vous recontacterons ultérieurement. Au revoir.",

		AffirmativeKeyword: "plus",
		OptOutKeyword:      "contacté",
	}
}
