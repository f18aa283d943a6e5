// Package containment guards actions proposed by an automated system with a
// forced slow-path evaluation.
//
// A Shield evaluates every action on the slow path and denies it when the
// autonomy exposure exceeds the configured limit or any criterion falls
// below its safety corridor. A denial trips the circuit breaker: the
// violation is logged, the source is isolated through the injected
// Enforcer, momentum decays, and once momentum drops below the lockdown
// level every further action is refused until Release.
//
// There is no default Enforcer. Without one, isolation and global
// containment report ErrEnforcerUnavailable and the shield fails closed:
// violations are still denied and lockdown still engages.
package containment
