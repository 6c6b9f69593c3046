package support

// Category is one of the closed category set classify dispatches to.
type Category string

const (
	CategorySales     Category = "sales"
	CategoryFeatures  Category = "features"
	CategoryBilling   Category = "billing"
	CategoryPayments  Category = "payments"
	CategoryMessaging Category = "messaging"
	CategoryAccount   Category = "account"
	CategoryMobileApp Category = "mobile-app"
	CategoryOther     Category = "other"
)

var validCategories = map[Category]bool{
	CategorySales: true, CategoryFeatures: true, CategoryBilling: true,
	CategoryPayments: true, CategoryMessaging: true, CategoryAccount: true,
	CategoryMobileApp: true, CategoryOther: true,
}

// coerceCategory maps an unrecognized model token to "other".
func coerceCategory(token string) Category {
	c := Category(token)
	if validCategories[c] {
		return c
	}
	return CategoryOther
}

// faqEntry is one question/answer pair in the knowledge base.
type faqEntry struct {
	Q string
	A string
}

// faqDatabase is the in-process, read-only knowledge base the answer node
// draws from.
var faqDatabase = map[Category][]faqEntry{
	CategoryBilling: {
		{Q: "¿Cómo cargo mi certificado AFIP?", A: "Andá a Configuración > AFIP > Subir certificado. Necesitás el archivo .crt y tu clave privada .key."},
		{Q: "¿Qué hago si AFIP rechaza mi factura?", A: "Los rechazos más comunes son: 1) CUIT inválido del cliente, 2) Punto de venta no autorizado, 3) Fecha inválida. Revisá el mensaje de error en el historial de facturas."},
		{Q: "¿Puedo emitir Factura A y B?", A: "Sí, si sos Responsable Inscripto podés emitir Factura A (a otros RI) y Factura B (a consumidores finales). Monotributistas emiten Factura C."},
		{Q: "¿Cómo configuro mi punto de venta?", A: "El punto de venta se configura en AFIP primero, luego lo agregás en Configuración > AFIP > Punto de Venta."},
	},
	CategoryPayments: {
		{Q: "¿Qué métodos de pago aceptan?", A: "Aceptamos Mercado Pago (tarjetas crédito/débito, saldo en cuenta) y efectivo en Rapipago/Pago Fácil."},
		{Q: "¿Cómo cambio mi plan?", A: "Andá a Configuración > Suscripción > Cambiar plan. El cambio es inmediato y se prorratea el costo."},
		{Q: "¿Puedo cancelar mi suscripción?", A: "Sí, podés cancelar cuando quieras desde Configuración > Suscripción > Cancelar. No hay penalidad por cancelación."},
		{Q: "¿Hay reembolsos?", A: "Ofrecemos reembolso completo en los primeros 7 días. Después, la cancelación aplica para el próximo período."},
	},
	CategoryMessaging: {
		{Q: "¿Cómo funcionan los créditos?", A: "1 crédito = 1 conversación de WhatsApp con IA. Una conversación incluye todos los mensajes hasta que se cierra. Los créditos no vencen."},
		{Q: "¿Qué pasa si me quedo sin créditos?", A: "La primera vez que te quedás sin créditos, se activan 50 créditos de emergencia de uso único. Después, tu WhatsApp vuelve al modo gratuito con link directo."},
		{Q: "¿Necesito un número especial?", A: "Para WhatsApp AI necesitás un número de WhatsApp Business dedicado. La opción gratuita usa link a tu número personal."},
		{Q: "¿Por qué no recibo mensajes?", A: "Verificá: 1) Que el número esté activo en Configuración > WhatsApp, 2) Que tengas créditos disponibles, 3) Que el webhook esté funcionando."},
	},
	CategoryAccount: {
		{Q: "¿Cómo cambio mi contraseña?", A: "Andá a Configuración > Cuenta > Cambiar contraseña. También podés usar 'Olvidé mi contraseña' desde la pantalla de login."},
		{Q: "¿Cómo agrego un técnico a mi equipo?", A: "Andá a Configuración > Equipo > Invitar miembro. Ingresá el email y seleccioná el rol (Técnico o Despachador)."},
		{Q: "¿Puedo tener múltiples organizaciones?", A: "Sí, podés crear varias organizaciones y cambiar entre ellas desde el menú de usuario arriba a la derecha."},
		{Q: "¿Cómo elimino mi cuenta?", A: "Podés solicitar eliminación en Configuración > Cuenta > Eliminar cuenta. Te eliminaremos completamente en 30 días máximo."},
	},
	CategoryMobileApp: {
		{Q: "¿La app funciona sin internet?", A: "Sí, la app guarda los trabajos del día localmente. Cuando recuperes conexión, se sincroniza automáticamente."},
		{Q: "¿Por qué no me funciona el GPS?", A: "Verificá que la app tenga permisos de ubicación en Configuración del celular > Aplicaciones > CampoTech > Permisos."},
		{Q: "¿Cómo subo fotos de un trabajo?", A: "Abrí el trabajo, tocá el botón de cámara o galería, y seleccioná las fotos. Se suben cuando tengas conexión."},
		{Q: "¿Por qué la app está lenta?", A: "Probá: 1) Cerrar y abrir la app, 2) Verificar conexión a internet, 3) Actualizar la app a la última versión."},
	},
	CategorySales: {
		{Q: "¿Cuánto cuesta CampoTech?", A: "Andá a campotech.com.ar/precios para ver los planes vigentes. Todos incluyen una prueba gratuita de 14 días, sin tarjeta."},
		{Q: "¿Puedo migrar desde otra herramienta?", A: "Sí, nuestro equipo te ayuda a importar tu catálogo de precios y tu base de clientes. Escribinos desde Configuración > Ayuda > Migración asistida."},
		{Q: "¿Tienen descuento por volumen de técnicos?", A: "Sí, a partir de 5 técnicos activos aplicamos un descuento escalonado. Coordinalo con nuestro equipo comercial."},
	},
	CategoryFeatures: {
		{Q: "¿Qué incluye el asistente de voz?", A: "El asistente transcribe el mensaje de audio del cliente, lo traduce si hace falta, y arma un borrador de trabajo automáticamente."},
		{Q: "¿Puedo generar presupuestos automáticos?", A: "Sí, a partir del memo de voz del técnico generamos un borrador de factura con partes y servicios ya cotizados contra tu catálogo."},
		{Q: "¿El sistema funciona con varios idiomas?", A: "Sí, detecta el idioma del mensaje entrante y lo traduce al español antes de procesar la solicitud."},
	},
	CategoryOther: {
		{Q: "¿Tienen soporte humano?", A: "Sí, podés escribirnos a soporte@campotech.com.ar y te respondemos en 24 horas hábiles."},
	},
}

// businessKnowledgeDocument is consulted in full for sales/features
// categories, in addition to their FAQ entries.
const businessKnowledgeDocument = `CampoTech es una plataforma para profesionales de servicios técnicos en Argentina: gestión de trabajos, facturación electrónica AFIP, catálogo de precios, y un asistente de IA que procesa pedidos de clientes por WhatsApp (voz y texto). Los planes se facturan mensualmente vía Mercado Pago y todos incluyen prueba gratuita de 14 días.`

func faqsForCategory(category Category) []faqEntry {
	if entries, ok := faqDatabase[category]; ok {
		return entries
	}
	return faqDatabase[CategoryOther]
}

func formatFAQs(entries []faqEntry) string {
	var out string
	for _, e := range entries {
		out += "P: " + e.Q + "\nR: " + e.A + "\n\n"
	}
	return out
}

// escalationPhrases are the markers the answer node scans for to decide a
// reply is really a handoff to a human.
var escalationPhrases = []string{
	"escalar", "humano", "soporte", "no puedo resolver",
	"no tengo información", "caso específico", "técnico",
	"te contactaremos", "equipo de soporte",
}
