/*
Package thermo provides a reference flash collaborator for the column solver.

Ideal implements ports.Flasher with Wilson K-values and a Rachford-Rice phase split.
Enthalpies use a constant heat capacity and a latent heat consistent with the K-value
correlation, so PH and TP flashes agree with each other. It is meant for tests, examples
and light hydrocarbon screening, not for design work.

Component constants come from an embedded YAML database; LoadDatabase reads a custom one.
*/
package thermo
