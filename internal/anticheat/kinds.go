package anticheat

// Kind identifies one session-integrity event type.
type Kind string

const (
	KindTabSwitch       Kind = "tab_switch"
	KindTextCopy        Kind = "text_copy"
	KindDevTools        Kind = "devtools"
	KindDOMTampering    Kind = "dom_tampering"
	KindFuncTampering   Kind = "function_tampering"
	KindModuleTampering Kind = "module_tampering"
	KindPageClose       Kind = "page_close"
	KindExternalContent Kind = "external_content"
	KindAntiOCR         Kind = "anti_ocr_tampering"
	KindHeartbeatMissed Kind = "heartbeat_missed"
)

// tamperingKinds share one combined termination ceiling: the sum of their
// counters is compared against the limit, regardless of which kind
// contributed the increments.
var tamperingKinds = []Kind{
	KindDevTools,
	KindDOMTampering,
	KindFuncTampering,
	KindModuleTampering,
	KindPageClose,
	KindExternalContent,
	KindAntiOCR,
}

// reportableKinds are the kinds a client may report through the violations
// endpoint. Missed heartbeats are derived server-side only.
var reportableKinds = map[Kind]bool{
	KindTabSwitch:       true,
	KindTextCopy:        true,
	KindDevTools:        true,
	KindDOMTampering:    true,
	KindFuncTampering:   true,
	KindModuleTampering: true,
	KindPageClose:       true,
	KindExternalContent: true,
	KindAntiOCR:         true,
}

// ParseKind maps a wire value onto a client-reportable Kind.
func ParseKind(raw string) (Kind, bool) {
	k := Kind(raw)
	return k, reportableKinds[k]
}
