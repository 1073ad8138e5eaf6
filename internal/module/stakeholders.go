package module

// StakeholderTerm names the concept that runs the stakeholder mini-flow
// instead of being shown as a card.
const StakeholderTerm = "Parties prenantes"

// StakeholderLabels is the fixed set participants pick two from.
var StakeholderLabels = []string{"Employés", "Clients", "Fournisseurs", "Communauté locale"}

// StakeholderPicks is how many labels must be selected on the selection screen.
const StakeholderPicks = 2

const (
	// StakeholderSelectStep is the selection screen.
	StakeholderSelectStep = 5
	// StakeholderBenefitsStep is shown after selection when the section has benefits.
	StakeholderBenefitsStep = 6
)

// StakeholderScreen is one explanatory or selection screen of the mini-flow.
type StakeholderScreen struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples,omitempty"`
}

// StakeholderScreens holds steps 0 through 5.
var StakeholderScreens = []StakeholderScreen{
	{
		Title:       "Qu'est-ce qu'une partie prenante ?",
		Explanation: "Les parties prenantes sont toutes les personnes ou organisations qui influencent votre entreprise ou qui sont influencées par elle.",
	},
	{
		Title:       "Employés",
		Explanation: "Vos collaborateurs sont au cœur de votre entreprise. Leur bien-être et leur développement sont essentiels pour une démarche RSE réussie.",
		Examples:    []string{"Formation continue", "Sécurité au travail", "Équilibre vie pro/perso"},
	},
	{
		Title:       "Clients",
		Explanation: "Vos clients sont la raison d'être de votre entreprise. Leur satisfaction et leur fidélité sont cruciales. Une démarche RSE renforce la confiance.",
		Examples:    []string{"Qualité des produits/services", "Transparence", "Service après-vente"},
	},
	{
		Title:       "Fournisseurs",
		Explanation: "Travailler avec des fournisseurs responsables garantit une chaîne de valeur éthique et durable, réduisant les risques et améliorant votre image.",
		Examples:    []string{"Achats responsables", "Relations équitables", "Critères sociaux/environnementaux"},
	},
	{
		Title:       "Communauté locale",
		Explanation: "L'intégration de votre entreprise dans son environnement local est un facteur clé de succès. Contribuer positivement renforce votre légitimité.",
		Examples:    []string{"Emploi local", "Soutien aux associations", "Réduction des nuisances"},
	},
	{
		Title:       "Sélectionnez vos parties prenantes",
		Explanation: "Sélectionnez maintenant les 2 parties prenantes les plus importantes pour votre entreprise aujourd'hui.",
	},
}

// IsStakeholderLabel reports whether label is one of the fixed labels.
func IsStakeholderLabel(label string) bool {
	for _, l := range StakeholderLabels {
		if l == label {
			return true
		}
	}
	return false
}
