// Package platform implements the device capabilities the monitor loop
// depends on for an Android (or Android-like Linux) device: the ADB-over-TCP
// toggle via system properties, keyguard detection via dumpsys, Wi-Fi
// connectivity via the network interface table and iw, and the kernel wake
// lock interface under /sys/power.
//
// Shell commands go through Runner so tests can script their output.
package platform
