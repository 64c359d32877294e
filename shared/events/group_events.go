package events

// Estos son contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre contextos.

type GroupCreated struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// MembershipChanged viaja en membership.added y membership.removed.
type MembershipChanged struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

// StarterGranted enlaza un grupo como iniciador candidato de una definición de proceso.
type StarterGranted struct {
	ProcessDefinitionID string `json:"processDefinitionId"`
	GroupID             string `json:"groupId"`
}
