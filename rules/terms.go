package rules

// Allergy keyword families. These are replaceable data tables, not logic:
// clinical completeness is not guaranteed and the lists are French-oriented
// on purpose, matching the portal's audience. Matching happens on
// diacritic-folded lowercase text.
const (
	familyPenicillin    = "pénicillines"
	familyCephalosporin = "céphalosporines"
	familySulfonamide   = "sulfamides"
	familyNSAID         = "AINS"
)

var allergyFamilies = map[string][]string{
	familyPenicillin: {
		"penicillin", "penicilline", "amoxicillin", "amoxicilline",
		"ampicillin", "ampicilline", "augmentin", "oxacilline",
		"cloxacilline", "piperacilline",
	},
	familyCephalosporin: {
		"cephalosporin", "cefalosporine", "cephalosporine", "cefuroxime",
		"ceftriaxone", "cefixime", "cefalexine", "cefpodoxime", "cefazoline",
	},
	familySulfonamide: {
		"sulfamide", "sulfonamide", "sulfamethoxazole", "cotrimoxazole",
		"bactrim", "sulfadiazine",
	},
	familyNSAID: {
		"ains", "nsaid", "anti-inflammatoire", "ibuprofen", "ibuprofene",
		"ketoprofene", "naproxene", "diclofenac", "aspirin", "aspirine",
		"celecoxib", "piroxicam",
	},
}

// familyOrder keeps family iteration deterministic so notes accumulate in a
// stable order.
var familyOrder = []string{
	familyPenicillin, familyCephalosporin, familySulfonamide, familyNSAID,
}
