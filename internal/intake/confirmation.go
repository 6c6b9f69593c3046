package intake

import "strings"

var serviceTypeLabels = map[string]string{
	"refrigeracion":      "Refrigeración",
	"lavarropas":         "Lavarropas",
	"aire_acondicionado": "Aire Acondicionado",
	"electricidad":       "Electricidad",
	"plomeria":           "Plomería",
	"gasista":            "Gasista",
	"cerrajeria":         "Cerrajería",
	"otros":              "Otros",
}

// FormatConfirmation builds the confirm-node outbound body:
// a short header, a bulleted summary of populated fields only, and a
// closing prompt. Output is plain text with lightweight markdown emphasis
// around labels.
func FormatConfirmation(e JobExtraction) string {
	var b strings.Builder
	b.WriteString("📝 Resumen de tu solicitud:\n\n")

	line := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString("- *" + label + ":* " + value + "\n")
	}

	if e.Title != "" {
		line("Servicio", e.Title)
	}
	if label, ok := serviceTypeLabels[e.ServiceType]; ok {
		line("Tipo", label)
	} else if e.ServiceType != "" {
		line("Tipo", e.ServiceType)
	}

	if e.ApplianceBrand != "" || e.ApplianceModel != "" {
		line("Equipo", strings.TrimSpace(e.ApplianceBrand+" "+e.ApplianceModel))
	}

	if e.ProblemDescription != "" {
		line("Problema", e.ProblemDescription)
	}

	address := assembleAddress(e.Address, e.City, e.Province)
	if address != "" {
		line("Dirección", address)
	}

	when := strings.TrimSpace(strings.Join(nonEmptyStrings(e.PreferredDate, e.PreferredTime), " "))
	if when != "" {
		line("Fecha preferida", when)
	}

	if e.Urgency != "" && e.Urgency != "normal" {
		line("Urgencia", e.Urgency)
	}

	b.WriteString("\n¿Es correcto? Respondé *Sí* para confirmar o contame qué debemos corregir.")
	return b.String()
}

func assembleAddress(address, city, province string) string {
	parts := nonEmptyStrings(address, city, province)
	return strings.Join(parts, ", ")
}

func nonEmptyStrings(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
