package search

// ResourceConfig mirrors one of RouteRequest's optional surge/dive
// blocks: whether the family is usable this query, how many free uses
// are available before cooldown applies, and the cooldown window
// itself.
type ResourceConfig struct {
	Enabled        bool
	InitialCharges uint8
	CooldownMs     uint32
}

// relaxationSlackMs bounds how much worse g may be when a strictly
// better ready time alone justifies reopening an already-closed node.
// See DESIGN.md's Open Question 1 decision for the rationale.
const relaxationSlackMs = 50

// shouldRelax implements the controlled-revisit rule: reopen iff the
// new path is strictly cheaper, or its resource becomes ready strictly
// sooner while g stays within slack of the best known g.
func shouldRelax(gNew, gOld uint32, readyNew, readyOld uint32) bool {
	if gNew < gOld {
		return true
	}
	return readyNew < readyOld && gNew <= gOld+relaxationSlackMs
}

// fire computes the wait-folded cost and resulting state of using a
// resource-gated edge from a node whose best known arrival time is
// gArrival and whose prior resource state (if any) is prior. Charges
// are consumed before any cooldown wait is enforced; once exhausted,
// firing again costs max(gArrival, ready) - gArrival extra wait,
// folded into the edge's own cost by the caller.
func fire(prior resourceState, gArrival uint32, cfg ResourceConfig) (waitMs uint32, next resourceState) {
	if prior.chargesLeft > 0 {
		next.chargesLeft = prior.chargesLeft - 1
		next.readyMs = gArrival + cfg.CooldownMs
		return 0, next
	}
	if gArrival < prior.readyMs {
		waitMs = prior.readyMs - gArrival
	}
	next.chargesLeft = 0
	next.readyMs = gArrival + waitMs + cfg.CooldownMs
	return waitMs, next
}

func initialResourceState(cfg ResourceConfig) resourceState {
	return resourceState{chargesLeft: cfg.InitialCharges}
}
