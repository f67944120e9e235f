package sim

import "github.com/sirupsen/logrus"

// PowerState is a node's hardware lifecycle state. The machine cycles
// OFF -> BOOTING -> ON -> SHUTTING_DOWN -> OFF, with the two transient
// states held for configured numbers of timesteps.
type PowerState string

const (
	PowerOff          PowerState = "OFF"
	PowerBooting      PowerState = "BOOTING"
	PowerOn           PowerState = "ON"
	PowerShuttingDown PowerState = "SHUTTING_DOWN"
)

// PowerState returns the node's current hardware state.
func (n *Node) PowerState() PowerState { return n.power }

// PowerOn begins the boot sequence. It is a no-op unless the node is OFF.
func (n *Node) PowerOn() bool {
	if n.power != PowerOff {
		return false
	}
	n.power = PowerBooting
	n.bootCountdown = n.startUpDuration
	logrus.Debugf("node %s booting (%d steps)", n.hostname, n.bootCountdown)
	if n.bootCountdown <= 0 {
		n.completeBoot()
	}
	return true
}

// PowerOff begins the shutdown sequence from ON or BOOTING. Entering
// SHUTTING_DOWN immediately force-stops every installed software instance.
func (n *Node) PowerOff() bool {
	if n.power != PowerOn && n.power != PowerBooting {
		return false
	}
	n.power = PowerShuttingDown
	n.shutdownCountdown = n.shutDownDuration
	n.sw.ForceStopAll()
	logrus.Debugf("node %s shutting down (%d steps)", n.hostname, n.shutdownCountdown)
	if n.shutdownCountdown <= 0 {
		n.completeShutdown()
	}
	return true
}

// completeBoot finishes BOOTING -> ON: interfaces come back up and
// auto-start software restarts.
func (n *Node) completeBoot() {
	n.power = PowerOn
	for _, name := range n.nicOrder {
		n.nics[name].enabled = true
	}
	n.sw.AutoStartAll()
	logrus.Infof("node %s is ON", n.hostname)
}

// completeShutdown finishes SHUTTING_DOWN -> OFF: all interfaces go down
// and the learned ARP table is lost.
func (n *Node) completeShutdown() {
	n.power = PowerOff
	for _, name := range n.nicOrder {
		n.nics[name].enabled = false
	}
	n.arp = make(map[string]string)
	logrus.Infof("node %s is OFF", n.hostname)
}

// advancePower drives the time-bound transitions by one step.
func (n *Node) advancePower() {
	switch n.power {
	case PowerBooting:
		n.bootCountdown--
		if n.bootCountdown <= 0 {
			n.completeBoot()
		}
	case PowerShuttingDown:
		n.shutdownCountdown--
		if n.shutdownCountdown <= 0 {
			n.completeShutdown()
		}
	}
}

func (n *Node) opPowerOn(ctx *RequestContext, args []string) Response {
	if !n.PowerOn() {
		return Failure("power_on is a no-op in state " + string(n.power))
	}
	return Success(nil)
}

func (n *Node) opPowerOff(ctx *RequestContext, args []string) Response {
	if !n.PowerOff() {
		return Failure("power_off is a no-op in state " + string(n.power))
	}
	return Success(nil)
}
