package authflow

// Step tags one stage of the authentication chain for progress reporting
type Step string

// Steps in chain order
const (
	StepDeviceCode     Step = "device_code"
	StepWaitingAuth    Step = "waiting_auth"
	StepMicrosoftToken Step = "microsoft_token"
	StepXboxAuth       Step = "xbox_auth"
	StepXSTSToken      Step = "xsts_token"
	StepMinecraftAuth  Step = "minecraft_auth"
	StepProfile        Step = "profile"
	StepComplete       Step = "complete"
)

// Waiting-phase percentage band: entry at the floor, interpolated toward the
// cap as the polling deadline approaches.
const (
	waitingFloor = 10
	waitingCap   = 35
)

// Progress is the value delivered to the observer at each transition. It is
// constructed fresh per transition and never mutated afterwards. UserCode and
// VerificationURI are set only on entry to the waiting phase, for the
// embedding UI to render.
type Progress struct {
	Step            Step
	Message         string
	Percent         int // 0-100, never decreases within one run
	UserCode        string
	VerificationURI string
}

// Reporter receives progress for a single authentication run. Reports are
// delivered synchronously and in step order; implementations are never
// invoked concurrently for the same run.
type Reporter interface {
	Report(Progress)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(Progress)

// Report invokes the function
func (f ReporterFunc) Report(p Progress) { f(p) }

// run wraps a Reporter with the per-run monotonicity guarantee: a report
// whose percentage would regress is clamped up to the highest value already
// delivered. A nil Reporter discards all reports.
type run struct {
	reporter Reporter
	last     int
}

func newRun(reporter Reporter) *run {
	return &run{reporter: reporter}
}

func (r *run) report(p Progress) {
	if r.reporter == nil {
		return
	}
	if p.Percent < r.last {
		p.Percent = r.last
	} else {
		r.last = p.Percent
	}
	r.reporter.Report(p)
}
