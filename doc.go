/*
dest implements cascaded shape regression for landmark alignment of
deformable objects, typically faces.  It trains an ensemble of
randomized regression trees arranged in boosting stages that refine a
coarse initial shape estimate (usually a face detector rectangle) into
accurate 2D landmark positions.

The training algorithm follows the one-millisecond face alignment
approach: each cascade stage fits trees to the residual between ground
truth and the current estimate using sparse pixel-intensity difference
features anchored to the current shape, and applies a learning-rate
shrunk update after every tree.

See example code and usage in the example subdirectory.
*/
package dest
