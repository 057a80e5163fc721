package notify

import (
	"fmt"
	"strings"
	"time"
)

// ServicePackage is the service type that produces a retrieval code and
// a durable delivery record. Every other service is notification-only.
const ServicePackage = "Encomendas/Produtos"

// The message texts are a wire contract with the WhatsApp relay and with
// the residents reading them; they are kept byte-for-byte compatible
// with the messages the previous system sent.

// RegistrationMessage renders the notification sent when something
// arrives at the front desk. For ServicePackage the text embeds the
// retrieval code; for other services it names the service instead.
func RegistrationMessage(building, resident, service, code string, now time.Time) string {
	date := now.Format("02/01/2006")
	hour := now.Format("15:04")

	if service == ServicePackage {
		return fmt.Sprintf(`🏢 *%s*

Olá *%s*, você tem uma nova encomenda!

📦 Sua Encomenda Chegou!

📅 Data: %s
⏰ Hora: %s

🔑 Código de retirada na portaria: *%s*

Esta é uma mensagem de atendimento automático, Entregas ZAP.`,
			building, resident, date, hour, code)
	}

	return fmt.Sprintf(`🏢 *%s*

Olá *%s*, Passando só pra te dizer que

📦 *%s*

📅 Data: %s
⏰ Hora: %s

Este é um atendimento automático, Entregas ZAP.`,
		building, resident, serviceDetail(service), date, hour)
}

// serviceDetail phrases the non-package service announcement.
func serviceDetail(service string) string {
	switch strings.ToLower(service) {
	case "delivery":
		return "seu Delivery chegou"
	case "gás":
		return "Seu gás chegou"
	case "visita":
		return "Sua visita chegou"
	case "uber", "99", "taxi":
		return fmt.Sprintf("Seu %s chegou", service)
	default:
		return fmt.Sprintf("Sua encomenda (%s) chegou", service)
	}
}

// PickupMessage renders the confirmation sent after a package is
// collected at the front desk.
func PickupMessage(building, resident, code, pickedUpBy string, now time.Time) string {
	return fmt.Sprintf(`🏢 *%s*

Olá *%s*, informamos que sua encomenda foi retirada!

✅ *Encomenda Retirada*

🔑 Código: *%s*
👤 Retirada por: *%s*

📅 Data: %s
⏰ Hora: %s

Esta é uma mensagem de confirmação automática, Entregas ZAP.`,
		building, resident, code, pickedUpBy,
		now.Format("02/01/2006"), now.Format("15:04"))
}

// ReminderMessage renders the nudge for a package still waiting at the
// front desk. The timestamps are those of the original arrival, not of
// the reminder itself.
func ReminderMessage(building, resident, code string, receivedAt time.Time) string {
	return fmt.Sprintf(`🏢 %s

Olá *%s*, Passando para te lembrar que seu pedido ja chegou.

*Está aqui na portaria Des do dia !*
📅 %s
⏰ Hora: %s

Aguardamos sua presença, E não se esqueça do código para retirada do produto aqui está novamente: *%s*

Este é um atendimento automático, Entregas ZAP, não responder.`,
		building, resident,
		receivedAt.Format("02/01/2006"), receivedAt.Format("15:04"), code)
}

// ManagerMessage renders a síndico broadcast to one resident.
func ManagerMessage(building, resident, manager, text string) string {
	return fmt.Sprintf(`🏢 *%s*

Olá *%s*, você tem um comunicado do síndico *%s*:

%s

Este é um atendimento automático, Entregas ZAP.`,
		building, resident, manager, text)
}
