package transport

type LoginRequest struct {
	Login string `json:"login"`
	Senha string `json:"senha"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type RegisterRequest struct {
	Login string `json:"login"`
	Senha string `json:"senha"`
	Super bool   `json:"super"`
}

// ProductRequest uses pointers so a missing field is told apart from a zero.
type ProductRequest struct {
	Nome      *string  `json:"nome"`
	Loginuser string   `json:"loginuser"`
	Qtde      *int     `json:"qtde"`
	Preco     *float64 `json:"preco"`
}

func (r ProductRequest) Complete() bool {
	return r.Nome != nil && *r.Nome != "" && r.Qtde != nil && r.Preco != nil
}

type RoleRequest struct {
	Tipouser string `json:"tipouser"`
}

type ErrorResponse struct {
	Erro string `json:"erro"`
}

type MessageResponse struct {
	Mensagem string `json:"mensagem"`
}

type ProductCreatedResponse struct {
	Mensagem string `json:"mensagem"`
	ID       uint   `json:"id"`
}
