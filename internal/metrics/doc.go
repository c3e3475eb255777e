// Package metrics owns all monitoring aggregates.
//
// Registry is the only writer coordination point: checker tasks hand their
// outcomes to RecordCheck / RecordCertificate and never share state with each
// other. Series live in a private prometheus.Registry, so every counter,
// gauge and histogram update is atomic per label set and no observation is
// lost under concurrent writers. Counters only grow; availability and
// certificate expiry are latest-value gauges.
package metrics
