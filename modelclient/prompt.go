package modelclient

import (
	"fmt"
	"strings"

	"github.com/mokokaf/interactions-api/entities"
)

// Prompt is the pair of messages sent to the chat-completion API.
type Prompt struct {
	System string
	User   string
}

const systemInstruction = `Tu es un assistant de pharmacologie clinique. On te donne deux médicaments et, parfois, le contexte du patient. Évalue leur interaction en t'appuyant sur des sources officielles (RCP, ANSM, Vidal).

Réponds UNIQUEMENT avec un objet JSON respectant exactement ce schéma :
{
  "summary": "résumé en une ou deux phrases",
  "bullets": ["1 à 8 points clés"],
  "action": "OK | Surveiller | Ajuster dose | Éviter/Contre-indiqué",
  "severity": "aucune | mineure | modérée | majeure | contre-indiquée",
  "mechanism": "mécanisme de l'interaction (optionnel)",
  "monitoring": ["éléments à surveiller, 8 au plus (optionnel)"],
  "pregnancy_category": "A | B | C | D | X | inconnue (optionnel)"
}

Exemple 1 — requête : ibuprofène + warfarine
{
  "summary": "L'ibuprofène majore le risque hémorragique sous warfarine.",
  "bullets": ["Inhibition plaquettaire et irritation gastrique par l'AINS", "Déplacement de la warfarine de l'albumine", "Préférer le paracétamol en antalgie"],
  "action": "Éviter/Contre-indiqué",
  "severity": "majeure",
  "mechanism": "Addition d'effets antihémostatiques et interaction pharmacocinétique",
  "monitoring": ["INR rapproché", "Signes de saignement"],
  "pregnancy_category": "D"
}

Exemple 2 — requête : paracétamol + amoxicilline
{
  "summary": "Aucune interaction cliniquement significative connue.",
  "bullets": ["Mécanismes d'action indépendants", "Association courante et bien tolérée"],
  "action": "OK",
  "severity": "aucune",
  "pregnancy_category": "B"
}`

// strictReminder is appended on the single retry after a parse failure.
const strictReminder = "RAPPEL STRICT : ta réponse doit être UNIQUEMENT du JSON valide, sans texte avant ou après, sans balises markdown."

// BuildPrompt restates both drugs with dose/route/frequency when present,
// compacts the patient context into a block, and carries the fixed schema
// instruction with its two worked examples.
func BuildPrompt(d1, d2 entities.CanonicalDrug, patient *entities.PatientContext, locale string, strict bool) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Interaction entre :\n- %s\n- %s\n", describeDrug(d1), describeDrug(d2))

	if block := patientBlock(patient); block != "" {
		b.WriteString("\nContexte patient :\n")
		b.WriteString(block)
	}

	if locale != "" && !strings.HasPrefix(strings.ToLower(locale), "fr") {
		fmt.Fprintf(&b, "\nLangue de réponse souhaitée : %s (les catégories action/severity restent en français).\n", locale)
	}

	system := systemInstruction
	if strict {
		system += "\n\n" + strictReminder
	}

	return Prompt{System: system, User: b.String()}
}

func describeDrug(d entities.CanonicalDrug) string {
	parts := []string{d.Name}
	if d.DoseMg != nil {
		parts = append(parts, fmt.Sprintf("dose: %g mg", *d.DoseMg))
	}
	if d.Route != "" {
		parts = append(parts, "voie: "+string(d.Route))
	}
	if d.Freq != "" {
		parts = append(parts, "fréquence: "+d.Freq)
	}
	if len(d.ActiveIngredientHints) > 0 {
		parts = append(parts, "principes actifs: "+strings.Join(d.ActiveIngredientHints, ", "))
	}
	if len(parts) == 1 {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", parts[0], strings.Join(parts[1:], ", "))
}

func patientBlock(p *entities.PatientContext) string {
	if p == nil {
		return ""
	}

	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("- %s : %s", label, value))
		}
	}

	if p.Age != nil {
		add("Âge", fmt.Sprintf("%d ans", *p.Age))
	}
	add("Sexe", p.Sex)
	if p.WeightKg != nil {
		add("Poids", fmt.Sprintf("%g kg", *p.WeightKg))
	}
	add("Grossesse", p.PregnancyStatus)
	add("Allaitement", p.Breastfeeding)
	if p.EGFR != nil {
		add("DFG estimé", fmt.Sprintf("%g mL/min", *p.EGFR))
	}
	add("Stade IRC", p.CKDStage)
	add("Insuffisance hépatique", p.HepaticImpairment)
	if len(p.Allergies) > 0 {
		add("Allergies", strings.Join(p.Allergies, ", "))
	}
	if len(p.Conditions) > 0 {
		add("Antécédents", strings.Join(p.Conditions, ", "))
	}
	if len(p.RiskFlags) > 0 {
		add("Facteurs de risque", strings.Join(p.RiskFlags, ", "))
	}

	return strings.Join(lines, "\n")
}
