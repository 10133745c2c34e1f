// Package generation defines the contract between the tracker and the
// insight generation backend. It abstracts the two remote collaborators the
// tracker consumes (the initialize call and the status poll), allowing the
// core to be tested and exercised without coupling to a specific transport.
package generation
