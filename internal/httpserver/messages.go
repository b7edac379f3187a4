package httpserver

const (
	msgBadCredentials    = "Login ou senha incorretos"
	msgProductNotFound   = "Produto não encontrado"
	msgUserNotFound      = "Usuário não encontrado"
	msgLoginTaken        = "Este login já está em uso. Tente outro."
	msgForbidden         = "Você não tem permissão para acessar esta página."
	msgProductLimit      = "Você não pode adicionar mais produtos. O limite de 3 produtos foi atingido."
	msgIncompleteProduct = "Dados incompletos. Certifique-se de enviar nome, qtde e preco."
	msgIncompleteUser    = "Dados incompletos. Certifique-se de enviar login e senha."
	msgInvalidData       = "Dados inválidos."
	msgInvalidRole       = "Tipo de usuário inválido."
	msgInvalidBody       = "Corpo da requisição inválido."
	msgInternal          = "Erro interno do servidor."
	msgSuperDisabled     = "O cadastro de super usuários está desabilitado."

	msgProductCreated = "Produto inserido com sucesso."
	msgProductAdded   = "Produto adicionado com sucesso."
	msgProductUpdated = "Produto atualizado com sucesso."
	msgProductDeleted = "Produto excluído com sucesso."
	msgUserUpdated    = "Usuário atualizado com sucesso."
	msgUserCreated    = "Usuário cadastrado com sucesso."
	msgSignedUp       = "Cadastro realizado com sucesso. Faça login para continuar."
	msgLoggedOut      = "Você foi desconectado."
)
