package almg

import "encoding/json"

// Item is one entry of resultado.listaItem.
// Scalars stay undecoded so a field with an unexpected JSON type fails only
// that record's validation, not the whole page
type Item struct {
	Autor          json.RawMessage `json:"autor"`
	DataPublicacao json.RawMessage `json:"dataPublicacao"`
	Ementa         json.RawMessage `json:"ementa"`
	Assunto        json.RawMessage `json:"assunto"`
	Regime         json.RawMessage `json:"regime"`
	Situacao       json.RawMessage `json:"situacao"`
	TipoProjeto    json.RawMessage `json:"tipoProjeto"`
	Numero         json.RawMessage `json:"numero"`
	Ano            json.RawMessage `json:"ano"`

	// Tramitacoes is listaHistoricoTramitacoes, decoded lazily into []Tramitacao
	Tramitacoes json.RawMessage `json:"listaHistoricoTramitacoes"`
}

// Tramitacao is one processing-history entry of an Item
type Tramitacao struct {
	Data      json.RawMessage `json:"data"`
	Historico json.RawMessage `json:"historico"`
	Local     json.RawMessage `json:"local"`
}

// searchResponse is the envelope of /proposicoes/pesquisa/direcionada
type searchResponse struct {
	Resultado *struct {
		ListaItem []json.RawMessage `json:"listaItem"`
	} `json:"resultado"`
}
