package domain

// GasConstant is the molar gas constant in J/(mol·K).
const GasConstant = 8.314462618

// BarToPascal converts a pressure in bar to Pa.
const BarToPascal = 1e5

// FlowEpsilon is the molar flow (mol/s) below which a stream is considered empty.
const FlowEpsilon = 1e-12
