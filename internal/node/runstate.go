package node

// RunState is the ordered login progression of a virtual node (spec.md 3).
// GENERATE_SEED is entered only on conflict retry; the initial pass skips
// from Init directly to GenerateAlias.
type RunState int

const (
	Init RunState = iota
	GenerateSeed
	GenerateAlias
	LoadCID07
	LoadCID06
	LoadCID05
	LoadCID04
	Wait200ms
	LoadReserveID
	LoadAliasMapDefinition
	LoadInitializationComplete
	LoadProducerEvents
	LoadConsumerEvents
	LoginComplete
	Run
)

func (s RunState) String() string {
	switch s {
	case Init:
		return "INIT"
	case GenerateSeed:
		return "GENERATE_SEED"
	case GenerateAlias:
		return "GENERATE_ALIAS"
	case LoadCID07:
		return "LOAD_CID07"
	case LoadCID06:
		return "LOAD_CID06"
	case LoadCID05:
		return "LOAD_CID05"
	case LoadCID04:
		return "LOAD_CID04"
	case Wait200ms:
		return "WAIT_200ms"
	case LoadReserveID:
		return "LOAD_RESERVE_ID"
	case LoadAliasMapDefinition:
		return "LOAD_ALIAS_MAP_DEFINITION"
	case LoadInitializationComplete:
		return "LOAD_INITIALIZATION_COMPLETE"
	case LoadProducerEvents:
		return "LOAD_PRODUCER_EVENTS"
	case LoadConsumerEvents:
		return "LOAD_CONSUMER_EVENTS"
	case LoginComplete:
		return "LOGIN_COMPLETE"
	case Run:
		return "RUN"
	default:
		return "UNKNOWN"
	}
}
