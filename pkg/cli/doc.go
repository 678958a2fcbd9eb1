// Package cli implements beaconctl, a command line client for the beacon
// monitoring admin API.
//
//	beaconctl status
//	beaconctl health -server http://beacon:8080
//	beaconctl alerts list -all
//	beaconctl alerts ack -actor ops high-cpu-1772366400000
//	beaconctl export
//
// Every command accepts -server (default $BEACON_SERVER or
// http://localhost:8080) and -json for raw output.
package cli
