// Package notify sends outbound notification payloads to the per-building
// webhook endpoint that does the actual WhatsApp messaging. The receiver
// only cares about HTTP status; response bodies are logged and discarded.
package notify

// Payload is the JSON body POSTed to a webhook. Field presence varies by
// call site: registrations carry either codigo_retirada (packages) or
// servico (everything else); pickup confirmations add tipo and
// retirado_por; bulk manager messages add tipo, nome, sindico and
// data_envio. The receiving side keys off these fields, so the names are
// part of the wire contract and stay in Portuguese.
type Payload struct {
	Building     string `json:"condominio"`
	Resident     string `json:"morador"`
	Message      string `json:"mensagem"`
	Phone        string `json:"telefone"`
	PhotoURL     string `json:"foto_url,omitempty"`
	Observation  string `json:"observacao,omitempty"`
	Code         string `json:"codigo_retirada,omitempty"`
	Service      string `json:"servico,omitempty"`
	Type         string `json:"tipo,omitempty"`
	PickedUpBy   string `json:"retirado_por,omitempty"`
	Name         string `json:"nome,omitempty"`
	Manager      string `json:"sindico,omitempty"`
	SentDate     string `json:"data_envio,omitempty"`
}

// Payload type markers understood by the webhook receiver.
const (
	TypePickupConfirmation = "confirmacao_retirada"
	TypeManagerMessage     = "mensagem_sindico"
)
