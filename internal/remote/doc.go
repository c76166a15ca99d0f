// Package remote is the wire client for the metadata API of one org.
//
// Deploys, retrieves and their status checks use the SOAP endpoint at
// /services/Soap/m/<version>; the supported versions come from the REST
// /services/data listing. Job submissions are retried on transient failures
// and every request passes through a rate limiter, so a tight polling loop
// cannot flood the org.
package remote
