package live

import "fmt"

// State is the lifecycle position of a voice session.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateConnecting           State = "connecting"
	StateActive               State = "active"
)

// Status is what the operator sees.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message"`
}

const (
	MessageIdle                 = "Clique no microfone para começar"
	MessageRequestingPermission = "Solicitando permissão do microfone..."
	MessagePermissionDenied     = "Permissão do microfone negada."
	MessageConnecting           = "Conectando ao assistente..."
	MessageConnected            = "Conectado. Pode falar!"
)

func errorMessage(err error) string {
	return fmt.Sprintf("Erro: %s. Tente novamente.", err.Error())
}
