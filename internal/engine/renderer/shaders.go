package renderer

import "fmt"

// InstanceBlock is the name of the uniform block holding the batched
// instance matrices.
const InstanceBlock = "Instances"

// rigVertexSource declares the instance block with room for maxMatrices
// matrices. Each matrix is stored transposed, so the block is declared
// row_major.
func rigVertexSource(maxMatrices int) string {
	return fmt.Sprintf(`
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in uint aIndex;

layout (std140, row_major) uniform Instances {
    mat4 uTransforms[%d];
};

uniform mat4 uViewProj;
uniform int uMatricesPerInstance;

out vec3 vWorld;

void main() {
    int slot = gl_InstanceID * uMatricesPerInstance + int(aIndex);
    vec4 world = uTransforms[slot] * vec4(aPos, 1.0);
    vWorld = world.xyz;
    gl_Position = uViewProj * world;
}
`, maxMatrices)
}

const rigFragmentSource = `
#version 410 core

in vec3 vWorld;

uniform vec4 uColor;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
    vec3 n = normalize(cross(dFdx(vWorld), dFdy(vWorld)));
    float diffuse = abs(dot(n, uLightDir));
    FragColor = vec4(uColor.rgb * (0.3 + 0.7 * diffuse), uColor.a);
}
`

const lineVertexSource = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uViewProj;

void main() {
    gl_Position = uViewProj * vec4(aPos, 1.0);
}
`

const lineFragmentSource = `
#version 410 core

uniform vec4 uColor;

out vec4 FragColor;

void main() {
    FragColor = uColor;
}
`
